package excel

import (
	"os"
	"path/filepath"
	"testing"

	"embsurvey/domain/survey"
	"embsurvey/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestReadCSVPadsRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "\ufeffRespondent ID,Country,Which tools?,\n" +
		",Response,Email,Phone\n" +
		"r1,Kenya,Email\n" +
		"r2,Ghana,Email,Phone,extra\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, rows, err := NewTableReader(path, zap.NewNop()).Read()
	require.NoError(t, err)

	assert.Len(t, rows, 4)
	assert.Equal(t, "Respondent ID", table.QuestionRow[0])
	assert.Equal(t, 4, table.Width())
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"r1", "Kenya", "Email", ""}, table.Rows[0])
	assert.Equal(t, []string{"r2", "Ghana", "Email", "Phone"}, table.Rows[1])
}

func TestReadCSVPadsShortOptionRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "Id,Q1,,\n" +
		"id,Yes,No\n" +
		"r1,x,,y\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, _, err := NewTableReader(path, zap.NewNop()).Read()
	require.NoError(t, err)

	assert.Equal(t, 4, table.Width())
	assert.Equal(t, []string{"id", "Yes", "No", ""}, table.OptionRow)
	assert.Equal(t, []string{"r1", "x", "", "y"}, table.Rows[0])
}

func TestBuildTablePadsHeaderRows(t *testing.T) {
	table, err := BuildTable([][]string{{"Q1"}, {"A", "B", "C"}, {"1", "2", "3", "4"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1", "", ""}, table.QuestionRow)
	assert.Len(t, table.OptionRow, 3)
	assert.Equal(t, []string{"1", "2", "3"}, table.Rows[0])
}

func TestReadWorkbookUsesFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Respondent ID", "Country", "Which tools?"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"", "Response", "Email"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"r1", "Kenya"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, _, err := NewTableReader(path, zap.NewNop()).Read()
	require.NoError(t, err)

	assert.Equal(t, 3, table.Width())
	assert.Len(t, table.OptionRow, 3)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"r1", "Kenya", ""}, table.Rows[0])
}

func TestReadMissingFile(t *testing.T) {
	_, _, err := NewTableReader(filepath.Join(t.TempDir(), "none.csv"), zap.NewNop()).Read()
	require.Error(t, err)
	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
}

func TestBuildTableNeedsTwoHeaderRows(t *testing.T) {
	_, err := BuildTable([][]string{{"only one row"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	table, err := BuildTable([][]string{{"Q"}, {"O"}})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestWriteWorkbook(t *testing.T) {
	r1 := survey.NewRespondent("r1", 0)
	r1.Set("country", survey.TextValue("Kenya"))
	r1.Set("fraud_incidents", survey.IntValue(2))
	r1.Set("tools", survey.ListValue([]string{"Email", "Phone"}))
	r2 := survey.NewRespondent("r2", 1)
	r2.Set("country", survey.Null)
	r2.Set("fraud_incidents", survey.IntValue(0))
	all := survey.NewDataset([]*survey.Respondent{r1, r2})
	complete := survey.NewDataset([]*survey.Respondent{r1})

	path := filepath.Join(t.TempDir(), "survey_clean.xlsx")
	require.NoError(t, WriteWorkbook(path, Sheet{Name: "complete", Dataset: complete}, Sheet{Name: "all", Dataset: all}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"complete", "all"}, f.GetSheetList())

	rows, err := f.GetRows("all")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"country", "fraud_incidents", "tools"}, rows[0])
	assert.Equal(t, []string{"Kenya", "2", `["Email","Phone"]`}, rows[1])
	assert.Equal(t, []string{"", "0"}, rows[2])
}

func TestWriteWorkbookRequiresSheet(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
