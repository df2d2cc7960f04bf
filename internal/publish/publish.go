// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish renders extracted novel text to a paginated PDF.
package publish

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/pkg/types"
)

const (
	inch = 72.0

	bodyFontFile         = "CrimsonText-Regular.ttf"
	headingFontFile      = "Cinzel-Regular.ttf"
	headingBoldFontFile  = "Cinzel-Bold.ttf"
	defaultTitle         = "Unit 985"
	titleLeadingFactor   = 1.5
	chapterLeadingFactor = 1.55
)

// DefaultConfig returns the default layout with the default title.
func DefaultConfig() types.PublishConfig {
	return types.PublishConfig{
		Layout: types.DefaultLayout(),
		Title:  defaultTitle,
	}
}

// Publisher renders text with a fixed layout.
type Publisher struct {
	Config types.PublishConfig
	Logger *zap.Logger
}

// New returns a Publisher. A zero layout is replaced with types.DefaultLayout.
func New(cfg types.PublishConfig, logger *zap.Logger) *Publisher {
	if cfg.Layout.PageSize == "" {
		cfg.Layout = types.DefaultLayout()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{Config: cfg, Logger: logger}
}

// fontSet names the families used for each text role.
type fontSet struct {
	body         string
	heading      string
	titleStyle   string
	chapterStyle string
	utf8         bool
}

// loadFonts registers the TTFs in the font directory when all of them are
// present. Otherwise the core Times family is used.
func (p *Publisher) loadFonts(pdf *fpdf.Fpdf) fontSet {
	core := fontSet{body: "Times", heading: "Times", titleStyle: "B", chapterStyle: "B"}

	dir := p.Config.FontDir
	if dir == "" {
		return core
	}

	files := []string{bodyFontFile, headingFontFile, headingBoldFontFile}
	data := make(map[string][]byte, len(files))
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			p.Logger.Debug("font unavailable, using Times", zap.String("font", name), zap.Error(err))
			return core
		}
		data[name] = b
	}

	pdf.AddUTF8FontFromBytes("CrimsonText", "", data[bodyFontFile])
	pdf.AddUTF8FontFromBytes("Cinzel", "", data[headingFontFile])
	pdf.AddUTF8FontFromBytes("Cinzel", "B", data[headingBoldFontFile])
	return fontSet{body: "CrimsonText", heading: "Cinzel", titleStyle: "B", chapterStyle: "", utf8: true}
}

// Render lays text out as a PDF. Text that is empty after Clean fails with
// types.ErrRender.
func (p *Publisher) Render(text string) (types.PublishedDocument, error) {
	sections := Sections(Clean(text))
	if len(sections) == 0 {
		return types.PublishedDocument{}, fmt.Errorf("%w: nothing to render", types.ErrRender)
	}

	l := p.Config.Layout
	pdf := fpdf.New("P", "pt", l.PageSize, "")
	pdf.SetMargins(l.MarginLeft, l.MarginTop, l.MarginRight)
	pdf.SetAutoPageBreak(true, l.MarginBottom)
	pdf.SetCreator("novel-engine", true)
	if p.Config.Title != "" {
		pdf.SetTitle(p.Config.Title, true)
	}

	fonts := p.loadFonts(pdf)
	tr := func(s string) string { return s }
	if !fonts.utf8 {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pageW, pageH := pdf.GetPageSize()
	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(l.Background[0], l.Background[1], l.Background[2])
		pdf.Rect(0, 0, pageW, pageH, "F")
	})
	pdf.SetTextColor(l.Text[0], l.Text[1], l.Text[2])

	if p.Config.Title != "" {
		pdf.AddPage()
		pdf.SetY(l.MarginTop + 3*inch)
		pdf.SetFont(fonts.heading, fonts.titleStyle, l.TitleFontSize)
		pdf.MultiCell(0, l.TitleFontSize*titleLeadingFactor, tr(p.Config.Title), "", "C", false)
	}

	for _, s := range sections {
		pdf.AddPage()
		if s.Heading != "" {
			pdf.SetY(l.MarginTop + inch)
			pdf.SetFont(fonts.heading, fonts.chapterStyle, l.ChapterFontSize)
			pdf.MultiCell(0, l.ChapterFontSize*chapterLeadingFactor, tr(s.Heading), "", "C", false)
			pdf.Ln(0.5 * inch)
		}

		pdf.SetFont(fonts.body, "", l.BodyFontSize)
		for _, para := range s.Paragraphs {
			pdf.SetX(l.MarginLeft + l.FirstLineIndent)
			pdf.Write(l.BodyLeading, tr(para))
			pdf.Ln(l.BodyLeading + l.ParagraphSpace)
		}
	}

	if pdf.Err() {
		return types.PublishedDocument{}, fmt.Errorf("%w: %v", types.ErrRender, pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return types.PublishedDocument{}, fmt.Errorf("%w: writing PDF: %v", types.ErrRender, err)
	}

	return types.PublishedDocument{PDF: buf.Bytes(), Pages: pdf.PageNo()}, nil
}

// OutputPath returns <dir>/<stem>.pdf for input path in. An empty dir means
// the input's directory.
func OutputPath(in, dir string) string {
	if dir == "" {
		dir = filepath.Dir(in)
	}
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(dir, stem+".pdf")
}

// PublishFile renders the text file at in and writes the PDF under the
// configured output directory. A missing or empty input fails with
// types.ErrRender and writes nothing.
func (p *Publisher) PublishFile(in string) (*types.PublishedDocument, error) {
	data, err := os.ReadFile(in)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: input %s does not exist", types.ErrRender, in)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in, err)
	}

	doc, err := p.Render(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}

	out := OutputPath(in, p.Config.OutputDir)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, doc.PDF, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", out, err)
	}
	doc.Path = out

	p.Logger.Info("published", zap.String("path", out), zap.Int("pages", doc.Pages), zap.Int("bytes", len(doc.PDF)))
	return &doc, nil
}
