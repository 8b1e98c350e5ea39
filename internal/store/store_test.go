package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

func TestLoadStatementTexts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement_texts.yaml")
	content := `fee-statement:
  additional_info: "Para consultas escriba a soporte@example.com"
  important_note: "Recuerde conciliar sus abonos"
  active_campaigns:
    - "Campaña de verano"
    - "Descuento por volumen"
refund-statement:
  additional_info: "Las devoluciones se procesan en 48 horas"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := NewTextStore(path, &logging.MockLogger{})
	texts, err := store.Load()
	require.NoError(t, err)

	fee := texts[models.DocFee]
	assert.Equal(t, "Recuerde conciliar sus abonos", fee.ImportantNote)
	assert.Len(t, fee.ActiveCampaigns, 2)

	refund := texts[models.DocRefund]
	assert.Equal(t, "Las devoluciones se procesan en 48 horas", refund.AdditionalInfo)
	assert.Empty(t, refund.ActiveCampaigns)

	// Unconfigured kinds still resolve, with empty texts.
	acquiring := texts[models.DocAcquiring]
	assert.Empty(t, acquiring.AdditionalInfo)
}

func TestLoadStatementTextsMissingFile(t *testing.T) {
	store := NewTextStore(filepath.Join(t.TempDir(), "missing.yaml"), &logging.MockLogger{})
	texts, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, texts, len(models.DocumentKinds))
}

func TestLoadStatementTextsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement_texts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fee-statement: [not a mapping"), 0o644))

	store := NewTextStore(path, &logging.MockLogger{})
	_, err := store.Load()
	require.Error(t, err)
}

func TestLoadStatementTextsIgnoresUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement_texts.yaml")
	content := `mystery-statement:
  additional_info: "should be dropped"
fee-statement:
  important_note: "kept"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := NewTextStore(path, &logging.MockLogger{})
	texts, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, texts, len(models.DocumentKinds))
	assert.Equal(t, "kept", texts[models.DocFee].ImportantNote)
}
