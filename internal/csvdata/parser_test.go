package csvdata_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipviz/internal/csvdata"
	"equipviz/internal/models"
)

const validCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump1,Pump,10,100,50
Pump2,Pump,20,200,60
Valve1,Valve,30,300,70
`

func TestParseValidFile(t *testing.T) {
	result, err := csvdata.Parse(strings.NewReader(validCSV))
	require.NoError(t, err)

	assert.Len(t, result.Rows, 3)
	assert.Len(t, result.Valid, 3)
	assert.Equal(t, 0, result.Dropped)

	assert.Equal(t, "Pump1", result.Rows[0].EquipmentName)
	assert.Equal(t, "10", result.Rows[0].Flowrate)
	assert.Equal(t, models.EquipmentRecord{
		Name: "Pump1", Type: "Pump", Flowrate: 10, Pressure: 100, Temperature: 50,
	}, result.Valid[0])

	// File order is preserved.
	assert.Equal(t, "Valve1", result.Valid[2].Name)
}

func TestParseHeaderToleratesCaseAndSpacing(t *testing.T) {
	csv := "equipment name, TYPE ,FlowRate,pressure , Temperature\nP1,Pump,1,2,3\n"

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, result.Valid, 1)
}

func TestParseMissingColumns(t *testing.T) {
	csv := "Equipment Name,Type,Flowrate\nP1,Pump,1\n"

	_, err := csvdata.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.ErrorIs(t, err, csvdata.ErrMissingColumns)
	assert.Contains(t, err.Error(), "Pressure")
	assert.Contains(t, err.Error(), "Temperature")
}

func TestParseEmptyInput(t *testing.T) {
	_, err := csvdata.Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, csvdata.ErrEmptyFile)
}

func TestParseUnparsableCSV(t *testing.T) {
	// Unterminated quote is a structural failure, not a droppable row.
	csv := "Equipment Name,Type,Flowrate,Pressure,Temperature\n\"P1,Pump,1,2,3\n"

	_, err := csvdata.Parse(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestParseDropsMalformedRowsButKeepsThemForDisplay(t *testing.T) {
	csv := `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump1,Pump,10,100,50
P1,Valve,abc,10,20
,Pump,5,5,5
Pump2,Pump,20,,60
Pump3,Pump,30,300,70
`

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	// All five rows are kept for display; only two survive normalization.
	assert.Len(t, result.Rows, 5)
	assert.Len(t, result.Valid, 2)
	assert.Equal(t, 3, result.Dropped)
	assert.GreaterOrEqual(t, len(result.Rows), len(result.Valid))

	// The malformed rows keep their original values.
	assert.Equal(t, "abc", result.Rows[1].Flowrate)
	assert.Equal(t, "", result.Rows[2].EquipmentName)
	assert.Equal(t, "", result.Rows[3].Pressure)

	assert.Equal(t, "Pump1", result.Valid[0].Name)
	assert.Equal(t, "Pump3", result.Valid[1].Name)
}

func TestParseSingleMalformedRow(t *testing.T) {
	csv := "Equipment Name,Type,Flowrate,Pressure,Temperature\nP1,Valve,abc,10,20\n"

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Len(t, result.Rows, 1)
	assert.Empty(t, result.Valid)
	assert.Equal(t, 1, result.Dropped)
}

func TestParseTrimsWhitespace(t *testing.T) {
	csv := "Equipment Name,Type,Flowrate,Pressure,Temperature\n  Pump1  , Pump ,  10 , 100 , 50 \n"

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Valid, 1)
	assert.Equal(t, "Pump1", result.Valid[0].Name)
	assert.Equal(t, "Pump", result.Valid[0].Type)
	assert.Equal(t, 10.0, result.Valid[0].Flowrate)
}

func TestParseRejectsNonFiniteNumbers(t *testing.T) {
	csv := `Equipment Name,Type,Flowrate,Pressure,Temperature
P1,Pump,NaN,1,2
P2,Pump,Inf,1,2
P3,Pump,1e9999,1,2
P4,Pump,-2.5,1,2
`

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Valid, 1)
	assert.Equal(t, "P4", result.Valid[0].Name)
	assert.Equal(t, -2.5, result.Valid[0].Flowrate)
	assert.Equal(t, 3, result.Dropped)
}

func TestParseAcceptsIntegersAndDecimals(t *testing.T) {
	csv := "Equipment Name,Type,Flowrate,Pressure,Temperature\nP1,Pump,10,99.75,-3.5\n"

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, result.Valid, 1)
	assert.Equal(t, 10.0, result.Valid[0].Flowrate)
	assert.Equal(t, 99.75, result.Valid[0].Pressure)
	assert.Equal(t, -3.5, result.Valid[0].Temperature)
}

func TestParseShortRowIsDroppedNotFatal(t *testing.T) {
	csv := "Equipment Name,Type,Flowrate,Pressure,Temperature\nP1,Pump,1\nP2,Pump,1,2,3\n"

	result, err := csvdata.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Len(t, result.Rows, 2)
	require.Len(t, result.Valid, 1)
	assert.Equal(t, "P2", result.Valid[0].Name)
}
