package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"rfq/internal"
)

var ErrNoXMLAttachment = errors.New("no .xml attachment in message")

// LoadTables reads the export at path. Saved e-mails (.eml) are unpacked and
// their first .xml attachment is parsed instead.
func LoadTables(path string) ([]internal.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return TablesFromInput(filepath.Base(path), blob)
}

func TablesFromInput(name string, content []byte) ([]internal.Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".eml") {
		xml, err := XMLAttachment(content)
		if err != nil {
			return nil, err
		}
		content = xml
	}
	return ParseTables(bytes.NewReader(content))
}

// XMLAttachment returns the first .xml attachment or inline part of a raw message.
func XMLAttachment(raw []byte) ([]byte, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, att := range parts {
		name := strings.ToLower(strings.TrimSpace(att.FileName))
		if strings.HasSuffix(name, ".xml") || strings.Contains(att.ContentType, "xml") {
			return att.Content, nil
		}
	}
	return nil, ErrNoXMLAttachment
}
