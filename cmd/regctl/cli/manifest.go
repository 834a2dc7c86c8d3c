package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"gopkg.in/yaml.v3"
)

// TemplateManifest 模板批量导入清单
type TemplateManifest struct {
	Templates []TemplateEntry `yaml:"templates"`
}

// TemplateEntry 单个模板。File 与 URL 二选一，File 为相对清单所在目录的路径
type TemplateEntry struct {
	Title             string `yaml:"title"`
	Description       string `yaml:"description"`
	Category          string `yaml:"category"`
	Region            string `yaml:"region"`
	Authority         string `yaml:"authority"`
	Jurisdiction      string `yaml:"jurisdiction"`
	CountryCode       string `yaml:"country_code"`
	CountryFlag       string `yaml:"country_flag"`
	Version           string `yaml:"version"`
	FileFormat        string `yaml:"file_format"`
	EffectiveDate     string `yaml:"effective_date"`
	LastUpdated       string `yaml:"last_updated"`
	CompletenessScore int    `yaml:"completeness_score"`
	Official          bool   `yaml:"official"`
	Featured          bool   `yaml:"featured"`

	File string `yaml:"file"`
	URL  string `yaml:"url"`
}

// ParseManifest 解析清单并把 File 解析为以 baseDir 为根的路径
func ParseManifest(r io.Reader, baseDir string) (*TemplateManifest, error) {
	var m TemplateManifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i := range m.Templates {
		e := &m.Templates[i]
		switch {
		case e.File != "" && e.URL != "":
			return nil, fmt.Errorf("template %d (%s): file and url are mutually exclusive", i, e.Title)
		case e.File == "" && e.URL == "":
			return nil, fmt.Errorf("template %d (%s): one of file or url is required", i, e.Title)
		case e.URL != "" && !types.ParseDownloadTarget(e.URL).IsExternal():
			return nil, fmt.Errorf("template %d (%s): url must be an absolute http(s) URL", i, e.Title)
		}
		if e.File != "" && !filepath.IsAbs(e.File) {
			e.File = filepath.Join(baseDir, e.File)
		}
	}
	return &m, nil
}

// Template 转换为领域模型，外部地址在此处设置
func (e *TemplateEntry) Template() (*types.Template, error) {
	t := &types.Template{
		Title:             strings.TrimSpace(e.Title),
		Description:       e.Description,
		Category:          e.Category,
		Region:            e.Region,
		Authority:         e.Authority,
		Jurisdiction:      e.Jurisdiction,
		CountryCode:       e.CountryCode,
		CountryFlag:       e.CountryFlag,
		Version:           e.Version,
		FileFormat:        strings.ToUpper(e.FileFormat),
		CompletenessScore: e.CompletenessScore,
		IsOfficial:        e.Official,
		IsFeatured:        e.Featured,
	}
	if e.File != "" {
		t.FileName = filepath.Base(e.File)
	} else {
		t.DownloadURL = types.ExternalTarget(e.URL)
	}

	var err error
	if t.EffectiveDate, err = parseDate(e.EffectiveDate); err != nil {
		return nil, fmt.Errorf("effective_date: %w", err)
	}
	if t.LastUpdated, err = parseDate(e.LastUpdated); err != nil {
		return nil, fmt.Errorf("last_updated: %w", err)
	}
	return t, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
