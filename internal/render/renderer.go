package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path/filepath"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// StatementData is the template context for one statement document.
type StatementData struct {
	Statement *models.Statement

	MonthName  string
	Year       int
	PeriodText string

	// Fixed boilerplate blocks shared by every statement of a period.
	AdditionalInfo  string
	ImportantNote   string
	ActiveCampaigns string
}

// NewStatementData builds the template context from an assembled statement
// and the fixed text blocks.
func NewStatementData(statement *models.Statement, additionalInfo, importantNote, activeCampaigns string) StatementData {
	return StatementData{
		Statement:       statement,
		MonthName:       statement.Period.MonthName(),
		Year:            statement.Period.Year,
		PeriodText:      statement.Period.Text(),
		AdditionalInfo:  additionalInfo,
		ImportantNote:   importantNote,
		ActiveCampaigns: activeCampaigns,
	}
}

// Renderer converts a statement context into a stored document. The real
// document conversion engine is an external collaborator; TemplateRenderer
// is the local implementation.
type Renderer interface {
	RenderAndStore(ctx context.Context, templateName string, data StatementData, destKey string) error
}

// TemplateRenderer renders html/template documents and stores them.
type TemplateRenderer struct {
	templates *template.Template
	storage   Storage
	logger    logging.Logger
}

// NewTemplateRenderer parses every *.html template under templatesDir.
func NewTemplateRenderer(templatesDir string, storage Storage, logger logging.Logger) (*TemplateRenderer, error) {
	templates, err := template.ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("error parsing statement templates in %s: %w", templatesDir, err)
	}
	return &TemplateRenderer{
		templates: templates,
		storage:   storage,
		logger:    logger,
	}, nil
}

// RenderAndStore executes the named template and stores the result under
// destKey.
func (r *TemplateRenderer) RenderAndStore(ctx context.Context, templateName string, data StatementData, destKey string) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return fmt.Errorf("error rendering template %s: %w", templateName, err)
	}

	if err := r.storage.Put(ctx, destKey, buf.Bytes()); err != nil {
		return err
	}

	r.logger.Info("Statement document rendered",
		logging.F("template", templateName),
		logging.F("key", destKey))
	return nil
}

// TemplateFor returns the template file name for a document kind.
func TemplateFor(doc models.DocumentKind) string {
	return doc.Prefix() + ".html"
}
