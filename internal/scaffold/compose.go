package scaffold

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]*struct{}      `yaml:"volumes,omitempty"`
}

type composeService struct {
	Image       string            `yaml:"image,omitempty"`
	Build       *composeBuild     `yaml:"build,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	Ports       []string          `yaml:"ports,omitempty"`
	Volumes     []string          `yaml:"volumes,omitempty"`
	Healthcheck *composeHealth    `yaml:"healthcheck,omitempty"`
	DependsOn   any               `yaml:"depends_on,omitempty"`
	Restart     string            `yaml:"restart,omitempty"`
}

type composeBuild struct {
	Context string `yaml:"context"`
}

type composeHealth struct {
	Test     []string `yaml:"test,flow"`
	Interval string   `yaml:"interval"`
	Timeout  string   `yaml:"timeout"`
	Retries  int      `yaml:"retries"`
}

const (
	pgUser     = "${POSTGRES_USER:-app}"
	pgPassword = "${POSTGRES_PASSWORD:-dev_password}"
	pgDB       = "${POSTGRES_DB:-app}"
)

// renderCompose produces docker-compose.yml for presets running a
// database, backend and web service together.
func renderCompose(ports Ports) ([]byte, error) {
	doc := composeFile{
		Services: map[string]composeService{
			"db": {
				Image: "postgres:16-alpine",
				Environment: map[string]string{
					"POSTGRES_USER":     pgUser,
					"POSTGRES_PASSWORD": pgPassword,
					"POSTGRES_DB":       pgDB,
				},
				Ports:   []string{fmt.Sprintf("%d:5432", ports.Database)},
				Volumes: []string{"postgres_data:/var/lib/postgresql/data"},
				Healthcheck: &composeHealth{
					Test:     []string{"CMD-SHELL", "pg_isready -U " + pgUser},
					Interval: "10s",
					Timeout:  "5s",
					Retries:  5,
				},
			},
			"backend": {
				Build: &composeBuild{Context: "./backend"},
				Environment: map[string]string{
					"DATABASE_URL": fmt.Sprintf("postgresql+asyncpg://%s:%s@db:5432/%s", pgUser, pgPassword, pgDB),
				},
				Ports: []string{fmt.Sprintf("%d:8000", ports.Backend)},
				DependsOn: map[string]map[string]string{
					"db": {"condition": "service_healthy"},
				},
				Restart: "unless-stopped",
			},
			"web": {
				Build: &composeBuild{Context: "./web"},
				Environment: map[string]string{
					"NEXT_PUBLIC_API_URL": fmt.Sprintf("http://localhost:%d", ports.Backend),
				},
				Ports:     []string{fmt.Sprintf("%d:3000", ports.Web)},
				DependsOn: []string{"backend"},
				Restart:   "unless-stopped",
			},
		},
		Volumes: map[string]*struct{}{"postgres_data": nil},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
