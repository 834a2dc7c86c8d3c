package loader

import (
	"bytes"
	"context"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want types.FileType
	}{
		{"plain text", []byte("Recall notice for device lot 42\n"), types.FileTypeTxt},
		{"utf-8 text", []byte("résumé für Prüfung\n"), types.FileTypeTxt},
		{"pdf header", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"), types.FileTypePdf},
		{"binary", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data))
		})
	}
}

func TestFactory_ExtractText(t *testing.T) {
	f := NewFactory()
	text, err := f.Extract(context.Background(), []byte("Guidance on 510(k) submissions"))
	require.NoError(t, err)
	assert.Equal(t, "Guidance on 510(k) submissions", text)
}

func TestDOCXLoader(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("Premarket Notification")
	w.AddParagraph().AddText("Cover letter template")
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	text, err := NewDOCXLoader().Load(context.Background(), buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "Premarket Notification")
	assert.Contains(t, text, "Cover letter template")
}

func TestFactory_Unsupported(t *testing.T) {
	f := NewFactory()
	_, err := f.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = f.CreateLoader(types.FileTypeDoc)
	assert.ErrorIs(t, err, ErrUnsupported)
}
