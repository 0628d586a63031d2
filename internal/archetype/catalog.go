// Package archetype holds the catalog of project archetypes and turns a
// selected archetype into the ordered phase list for a run.
package archetype

import (
	"fmt"
	"sort"

	"github.com/stackwright/stackwright/pkg/models"
)

// CustomID is the identifier of the freeform archetype whose phase list is
// inferred from the request text instead of a fixed template.
const CustomID = "custom"

// ErrUnknownArchetype is returned when an archetype identifier is not in
// the catalog.
type ErrUnknownArchetype struct {
	ID string
}

func (e *ErrUnknownArchetype) Error() string {
	return fmt.Sprintf("unknown archetype: %q", e.ID)
}

// Catalog is a read-only mapping from archetype identifier to definition.
type Catalog struct {
	archetypes map[string]models.Archetype
}

// NewCatalog returns a catalog containing the built-in archetypes.
func NewCatalog() *Catalog {
	c := &Catalog{archetypes: make(map[string]models.Archetype)}
	for _, a := range builtins() {
		c.archetypes[a.ID] = a
	}
	return c
}

// Add registers an archetype. Existing entries are not replaced, so
// built-ins win on id collision.
func (c *Catalog) Add(a models.Archetype) bool {
	if _, exists := c.archetypes[a.ID]; exists {
		return false
	}
	c.archetypes[a.ID] = a
	return true
}

// Get returns the archetype for the given id.
func (c *Catalog) Get(id string) (models.Archetype, error) {
	a, ok := c.archetypes[id]
	if !ok {
		return models.Archetype{}, &ErrUnknownArchetype{ID: id}
	}
	return a, nil
}

// ListArchetypes returns summaries of all archetypes, sorted by id.
// Phase detail is not leaked through this surface.
func (c *Catalog) ListArchetypes() []models.ArchetypeSummary {
	out := make([]models.ArchetypeSummary, 0, len(c.archetypes)+1)
	for _, a := range c.archetypes {
		out = append(out, a.Summary())
	}
	out = append(out, models.ArchetypeSummary{
		ID:          CustomID,
		Name:        "Custom Project",
		Description: "Phase plan inferred from your request",
		Tags:        []string{"freeform"},
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InstantiatePhases turns an archetype selection into the ordered phase
// list for a run. Fixed archetypes copy their template list; the custom
// archetype derives its phases from the request text and attachment.
func (c *Catalog) InstantiatePhases(archetypeID, requestText, attachment string) ([]*models.Phase, error) {
	if archetypeID == CustomID {
		return instantiate(inferCustomPhases(requestText, attachment)), nil
	}

	a, err := c.Get(archetypeID)
	if err != nil {
		return nil, err
	}
	return instantiate(a.Phases), nil
}

// instantiate copies templates into pending phases with run-scoped indices.
func instantiate(templates []models.PhaseTemplate) []*models.Phase {
	phases := make([]*models.Phase, len(templates))
	for i, t := range templates {
		phases[i] = models.NewPhase(t, i)
	}
	return phases
}

// builtins returns the archetypes shipped with the binary.
func builtins() []models.Archetype {
	return []models.Archetype{
		{
			ID:          "fastapi-sqlite",
			Name:        "FastAPI + SQLite",
			Description: "Python REST API with FastAPI, SQLAlchemy and a SQLite database",
			Tags:        []string{"python", "fastapi", "sqlite", "rest"},
			Phases: []models.PhaseTemplate{
				{
					ID:            "setup",
					Name:          "Project Setup",
					Description:   "Project scaffolding: dependency manifest, README, package layout and configuration.",
					ExpectedFiles: []string{"requirements.txt", "README.md", "app/__init__.py"},
				},
				{
					ID:            "database",
					Name:          "Database Layer",
					Description:   "SQLAlchemy engine, session handling and SQLite connection setup.",
					ExpectedFiles: []string{"app/database.py", "app/models.py"},
				},
				{
					ID:            "crud",
					Name:          "CRUD Operations",
					Description:   "Create/read/update/delete functions over the database models.",
					ExpectedFiles: []string{"app/crud.py"},
				},
				{
					ID:            "schemas",
					Name:          "Pydantic Schemas",
					Description:   "Request and response schemas mirroring the database models.",
					ExpectedFiles: []string{"app/schemas.py"},
				},
				{
					ID:            "api",
					Name:          "API Routes",
					Description:   "FastAPI routers exposing the CRUD operations as REST endpoints.",
					ExpectedFiles: []string{"app/routers/*.py"},
				},
				{
					ID:            "main",
					Name:          "Application Entry",
					Description:   "FastAPI application wiring routers, middleware and startup hooks.",
					ExpectedFiles: []string{"app/main.py"},
				},
				{
					ID:            "tests",
					Name:          "Test Suite",
					Description:   "Pytest suite covering the API endpoints against a temporary database.",
					ExpectedFiles: []string{"tests/*.py"},
				},
				{
					ID:            "docker",
					Name:          "Docker Deployment",
					Description:   "Dockerfile and compose file, then start the API in a local container.",
					ExpectedFiles: []string{"Dockerfile", "docker-compose.yml"},
					Optional:      true,
					Kind:          models.KindDockerDeployment,
				},
				{
					ID:          "validation",
					Name:        "Validation Run",
					Description: "Run the generated test suite and report the results.",
					Kind:        models.KindValidation,
				},
			},
		},
		{
			ID:          "express-mongo",
			Name:        "Express + MongoDB",
			Description: "Node.js REST API with Express, Mongoose and MongoDB",
			Tags:        []string{"node", "express", "mongodb", "rest"},
			Phases: []models.PhaseTemplate{
				{
					ID:            "setup",
					Name:          "Project Setup",
					Description:   "package.json, entry point skeleton and environment configuration.",
					ExpectedFiles: []string{"package.json", "README.md", ".env.example"},
				},
				{
					ID:            "models",
					Name:          "Mongoose Models",
					Description:   "Mongoose schemas and models with validation rules.",
					ExpectedFiles: []string{"src/models/*.js"},
				},
				{
					ID:            "routes",
					Name:          "Express Routes",
					Description:   "Express routers and controllers for the resource endpoints.",
					ExpectedFiles: []string{"src/routes/*.js", "src/controllers/*.js"},
				},
				{
					ID:            "middleware",
					Name:          "Middleware",
					Description:   "Error handling, request logging and input validation middleware.",
					ExpectedFiles: []string{"src/middleware/*.js"},
					Optional:      true,
				},
				{
					ID:            "server",
					Name:          "Server Wiring",
					Description:   "Express app assembly, MongoDB connection and server startup.",
					ExpectedFiles: []string{"src/server.js"},
				},
				{
					ID:            "tests",
					Name:          "Test Suite",
					Description:   "Jest and supertest coverage of the API endpoints.",
					ExpectedFiles: []string{"tests/*.test.js"},
				},
				{
					ID:            "docker",
					Name:          "Docker Deployment",
					Description:   "Dockerfile plus compose file with a MongoDB service, then start locally.",
					ExpectedFiles: []string{"Dockerfile", "docker-compose.yml"},
					Optional:      true,
					Kind:          models.KindDockerDeployment,
				},
				{
					ID:          "validation",
					Name:        "Validation Run",
					Description: "Run the generated test suite and report the results.",
					Kind:        models.KindValidation,
				},
			},
		},
		{
			ID:          "go-gin-postgres",
			Name:        "Go + Gin + Postgres",
			Description: "Go REST API with Gin, sqlc-style queries and PostgreSQL",
			Tags:        []string{"go", "gin", "postgres", "rest"},
			Phases: []models.PhaseTemplate{
				{
					ID:            "setup",
					Name:          "Project Setup",
					Description:   "Go module, directory layout and configuration loading.",
					ExpectedFiles: []string{"go.mod", "README.md", "cmd/server/main.go"},
				},
				{
					ID:            "schema",
					Name:          "Database Schema",
					Description:   "SQL migrations defining the Postgres schema.",
					ExpectedFiles: []string{"migrations/*.sql"},
				},
				{
					ID:            "store",
					Name:          "Data Store",
					Description:   "Repository layer over database/sql with typed queries.",
					ExpectedFiles: []string{"internal/store/*.go"},
				},
				{
					ID:            "handlers",
					Name:          "HTTP Handlers",
					Description:   "Gin handlers and routing for the resource endpoints.",
					ExpectedFiles: []string{"internal/handlers/*.go"},
				},
				{
					ID:            "tests",
					Name:          "Test Suite",
					Description:   "Handler and store tests with a temporary database.",
					ExpectedFiles: []string{"internal/handlers/*_test.go"},
				},
				{
					ID:            "docker",
					Name:          "Docker Deployment",
					Description:   "Multi-stage Dockerfile plus compose file with Postgres, then start locally.",
					ExpectedFiles: []string{"Dockerfile", "docker-compose.yml"},
					Optional:      true,
					Kind:          models.KindDockerDeployment,
				},
				{
					ID:          "validation",
					Name:        "Validation Run",
					Description: "Run the generated test suite and report the results.",
					Kind:        models.KindValidation,
				},
			},
		},
		{
			ID:          "azure-functions",
			Name:        "Azure Functions API",
			Description: "Serverless HTTP API on Azure Functions with Bicep infrastructure",
			Tags:        []string{"azure", "serverless", "functions", "bicep"},
			Phases: []models.PhaseTemplate{
				{
					ID:            "setup",
					Name:          "Project Setup",
					Description:   "Function app scaffolding, host configuration and local settings template.",
					ExpectedFiles: []string{"host.json", "requirements.txt", "README.md"},
				},
				{
					ID:            "functions",
					Name:          "Function Handlers",
					Description:   "HTTP-triggered function handlers for the API operations.",
					ExpectedFiles: []string{"function_app.py"},
				},
				{
					ID:            "storage",
					Name:          "Storage Bindings",
					Description:   "Table or blob storage access used by the handlers.",
					ExpectedFiles: []string{"storage.py"},
					Optional:      true,
				},
				{
					ID:            "tests",
					Name:          "Test Suite",
					Description:   "Unit tests for the function handlers.",
					ExpectedFiles: []string{"tests/*.py"},
				},
				{
					ID:          "validation",
					Name:        "Validation Run",
					Description: "Run the generated test suite and report the results.",
					Kind:        models.KindValidation,
				},
				{
					ID:            "deploy",
					Name:          "Azure Deployment",
					Description:   "Generate Bicep infrastructure and deploy the function app to Azure.",
					ExpectedFiles: []string{"infra/*.bicep"},
					Optional:      true,
					Kind:          models.KindCloudDeployment,
				},
			},
		},
	}
}
