package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `<Table><TR><TH>General information</TH><TD>A1 lift</TD></TR></Table>`

func buildMessage(t *testing.T, attach bool) []byte {
	t.Helper()
	b := enmime.Builder().
		From("Sender", "sender@example.com").
		To("Receiver", "rfq@example.com").
		Subject("Hissdata").
		Text([]byte("Se bifogad fil."))
	if attach {
		b = b.AddAttachment([]byte(sampleExport), "application/xml", "hissar.xml")
	}
	part, err := b.Build()
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, part.Encode(&sb))
	return []byte(sb.String())
}

func TestTablesFromInputMarkup(t *testing.T) {
	tables, err := TablesFromInput("export.xml", []byte(sampleExport))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A1 lift", tables[0].Rows[0].Cells[1].Text)
}

func TestTablesFromInputEmail(t *testing.T) {
	tables, err := TablesFromInput("request.EML", buildMessage(t, true))
	require.NoError(t, err)
	require.Len(t, tables, 1)

	units, _ := ExtractUnits(tables)
	require.Len(t, units, 1)
	assert.Equal(t, "A1 lift", units[0]["general_information"])
}

func TestTablesFromInputEmailWithoutAttachment(t *testing.T) {
	_, err := TablesFromInput("request.eml", buildMessage(t, false))
	assert.True(t, errors.Is(err, ErrNoXMLAttachment))
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Len(t, tables, 1)

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)
}
