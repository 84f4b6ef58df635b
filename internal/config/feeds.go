package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"cve_bot/internal/model"
)

type feedsFile struct {
	Feeds []feedEntry `yaml:"feeds" validate:"required,min=1,dive"`
}

type feedEntry struct {
	Name         string   `yaml:"name" validate:"required"`
	URL          string   `yaml:"url" validate:"required,url"`
	Technologies []string `yaml:"technologies" validate:"omitempty,dive,required"`
}

// LoadFeeds reads and validates the advisory feed list at path.
//
// Example:
//
//	feeds:
//	  - name: nvd
//	    url: https://nvd.nist.gov/feeds/xml/cve/misc/nvd-rss.xml
//	  - name: nginx
//	    url: https://nginx.org/en/security_advisories.rss
//	    technologies: [nginx]
func LoadFeeds(path string) ([]model.FeedSource, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes and validates a YAML feed list.
func ParseFeeds(data []byte) ([]model.FeedSource, error) {
	var doc feedsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}

	if err := validator.New().Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid feeds file: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("validate feeds file: %w", err)
	}

	seen := make(map[string]bool, len(doc.Feeds))
	sources := make([]model.FeedSource, 0, len(doc.Feeds))
	for _, f := range doc.Feeds {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate feed name %q", f.Name)
		}
		seen[f.Name] = true
		sources = append(sources, model.FeedSource{
			Name:         f.Name,
			URL:          f.URL,
			Technologies: f.Technologies,
		})
	}
	return sources, nil
}
