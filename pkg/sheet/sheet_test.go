package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/variance"
)

// frenchWorkbook builds a workbook shaped like the hand-kept planning files:
// a two-line legend, French headers on row 3 and a stale derived column.
func frenchWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", DefaultSheetName))

	rows := [][]interface{}{
		{"Légende: 🟨 Prévu 🟩 En cours"},
		{},
		{"Projet", "Responsable", "Date début", "Date fin", "État", "Progression (%)", "Retard (%)", "Alerte 🚨"},
		{"Alpha", "Ana", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01-11", "En cours", "30%", 99, "!"},
		{},
		{"Beta", " Bo ", "not a date", "2024-01-11", "Prévu", "", nil, ""},
		{"Gamma", "Cy", "2024-02-01", "2024-03-01", "Bloqué", 45.5},
	}
	for i := range rows {
		if len(rows[i]) == 0 {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(DefaultSheetName, ref, &rows[i]))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestLoadFrenchWorkbook(t *testing.T) {
	res, err := Load(frenchWorkbook(t), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Missing)

	ds := res.Dataset
	assert.Equal(t, []string{"Alerte 🚨"}, ds.Extra)
	require.Len(t, ds.Tasks, 3)

	alpha := ds.Tasks[0]
	assert.NotEmpty(t, alpha.ID)
	assert.Equal(t, "Alpha", alpha.Project)
	assert.Equal(t, "Ana", alpha.Owner)
	require.NotNil(t, alpha.Start)
	assert.Equal(t, "2024-01-01", alpha.Start.String())
	require.NotNil(t, alpha.End)
	assert.Equal(t, "2024-01-11", alpha.End.String())
	assert.Equal(t, "En cours", alpha.Status)
	require.NotNil(t, alpha.Progress)
	assert.Equal(t, 30.0, *alpha.Progress)
	assert.Nil(t, alpha.Delay, "derived columns are not loaded")
	assert.Equal(t, "!", alpha.Extra["Alerte 🚨"])

	beta := ds.Tasks[1]
	assert.Equal(t, "Bo", beta.Owner)
	assert.Nil(t, beta.Start)
	assert.Nil(t, beta.Progress)

	gamma := ds.Tasks[2]
	require.NotNil(t, gamma.Progress)
	assert.Equal(t, 45.5, *gamma.Progress)
	assert.Equal(t, "", gamma.Extra["Alerte 🚨"])
}

func TestLoadReportsMissingColumns(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Plan"))
	header := []string{"Project", "Owner", "Status"}
	require.NoError(t, f.SetSheetRow("Plan", "A1", &header))
	row := []string{"Alpha", "Ana", "Done"}
	require.NoError(t, f.SetSheetRow("Plan", "A2", &row))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := Load(&buf, Options{SheetName: "Plan", HeaderRow: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{ColStart, ColEnd, ColProgress}, res.Missing)
	require.Len(t, res.Dataset.Tasks, 1)
	assert.Nil(t, res.Dataset.Tasks[0].Start)
}

func TestLoadUnknownSheet(t *testing.T) {
	_, err := Load(frenchWorkbook(t), Options{SheetName: "Nope"})
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestLoadHeaderBeyondData(t *testing.T) {
	res, err := Load(frenchWorkbook(t), Options{HeaderRow: 50})
	require.NoError(t, err)
	assert.Equal(t, Contract, res.Missing)
	assert.Empty(t, res.Dataset.Tasks)
}

func TestLoadReadsStoredProgress(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Plan"))
	rows := [][]interface{}{
		{"Project", "Owner", "Start Date", "End Date", "Status", "Progress%"},
		{"Alpha", "Ana", "2024-01-01", "2024-01-11", "In progress", 42.5},
		{"Beta", "Bo", "20240106", "2024-01-11", "In progress", 0.305},
	}
	for i := range rows {
		require.NoError(t, f.SetSheetRow("Plan", fmt.Sprintf("A%d", i+1), &rows[i]))
	}
	whole, err := f.NewStyle(&excelize.Style{NumFmt: 1})
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Plan", "F2", "F2", whole))
	require.NoError(t, f.SetCellStyle("Plan", "F3", "F3", percent))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := Load(&buf, Options{SheetName: "Plan", HeaderRow: 1})
	require.NoError(t, err)
	require.Len(t, res.Dataset.Tasks, 2)

	alpha, beta := res.Dataset.Tasks[0], res.Dataset.Tasks[1]
	require.NotNil(t, alpha.Progress)
	assert.Equal(t, 42.5, *alpha.Progress)
	require.NotNil(t, beta.Progress)
	assert.InDelta(t, 30.5, *beta.Progress, 1e-9)
	assert.Nil(t, beta.Start, "yyyymmdd text is not a serial date")

	out := variance.Apply(res.Dataset.Tasks, model.NewDate(2024, 1, 6))
	assert.Nil(t, out[1].Expected)
	assert.Nil(t, out[1].Delay)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewBufferString("not a zip"), Options{})
	assert.Error(t, err)
}

func derivedDataset() model.Dataset {
	ds := model.Dataset{
		Extra: []string{"Notes"},
		Tasks: []model.Task{
			{
				Project:  "Alpha",
				Owner:    "Ana",
				Start:    model.NewDate(2024, 1, 1).Ptr(),
				End:      model.NewDate(2024, 1, 11).Ptr(),
				Status:   model.StatusInProgress,
				Progress: model.Float(30),
				Extra:    map[string]string{"Notes": "kickoff done"},
			},
			{Project: "Beta", Owner: "Bo", Status: model.StatusPlanned},
		},
	}
	ds.Tasks = variance.Apply(ds.Tasks, model.NewDate(2024, 1, 6))
	return ds
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	ds := derivedDataset()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, ds, WriteOptions{Caption: "test export"}))

	raw := buf.Bytes()
	res, err := Load(bytes.NewReader(raw), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Missing)
	assert.Equal(t, ds.Extra, res.Dataset.Extra)
	require.Len(t, res.Dataset.Tasks, 2)

	got := res.Dataset.Tasks[0]
	assert.Equal(t, "Alpha", got.Project)
	assert.Equal(t, "2024-01-01", got.Start.String())
	assert.Equal(t, "2024-01-11", got.End.String())
	assert.Equal(t, 30.0, *got.Progress)
	assert.Equal(t, "kickoff done", got.Extra["Notes"])
	assert.Nil(t, res.Dataset.Tasks[1].Start)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheetName, DashboardSheet}, f.GetSheetList())

	header, err := f.GetCellValue(DefaultSheetName, "G3")
	require.NoError(t, err)
	assert.Equal(t, ColExpected, header)
	delay, err := f.GetCellValue(DefaultSheetName, "H4")
	require.NoError(t, err)
	assert.Equal(t, "20", delay)
	legend, err := f.GetCellValue(DefaultSheetName, "A1")
	require.NoError(t, err)
	assert.Empty(t, legend)

	caption, err := f.GetCellValue(DashboardSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "test export", caption)
	total, err := f.GetCellValue(DashboardSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, derivedDataset()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"Project", "Owner", "Start Date", "End Date", "Status", "Progress%",
		"Expected Progress%", "Delay%", "Notes",
	}, records[0])
	assert.Equal(t, []string{
		"Alpha", "Ana", "2024-01-01", "2024-01-11", "In Progress", "30", "50", "20", "kickoff done",
	}, records[1])
	assert.Equal(t, []string{"Beta", "Bo", "", "", "Planned", "", "", "", ""}, records[2])
}
