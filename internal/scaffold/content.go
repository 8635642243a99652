package scaffold

import (
	"fmt"
	"strings"

	"github.com/rapids-dev/rapids/internal/stack"
)

const webDockerfile = `FROM node:20-alpine AS deps
WORKDIR /app
COPY package.json package-lock.json* ./
RUN npm ci

FROM node:20-alpine AS builder
WORKDIR /app
COPY --from=deps /app/node_modules ./node_modules
COPY . .
RUN npm run build

FROM node:20-alpine AS runner
WORKDIR /app
ENV NODE_ENV=production
COPY --from=builder /app/.next/standalone ./
COPY --from=builder /app/.next/static ./.next/static
COPY --from=builder /app/public ./public
EXPOSE 3000
CMD ["node", "server.js"]
`

const backendDockerfile = `FROM python:3.12-slim
WORKDIR /app

RUN apt-get update && apt-get install -y gcc postgresql-client && rm -rf /var/lib/apt/lists/*

COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt

COPY . .

HEALTHCHECK --interval=30s --timeout=10s --start-period=40s --retries=3 CMD python -c "import requests; requests.get('http://localhost:8000/health')"

EXPOSE 8000
CMD ["uvicorn", "app.main:app", "--host", "0.0.0.0", "--port", "8000"]
`

// Dockerfiles maps the preset folder to the Dockerfile written into it.
var Dockerfiles = map[string]string{
	"web":     webDockerfile,
	"backend": backendDockerfile,
}

// stackNotes is the README line per stack folder, in output order.
var stackNotes = []struct {
	Folder string
	Line   string
}{
	{Folder: "mobile", Line: "- **Mobile**: Flutter + Riverpod + Go Router"},
	{Folder: "web", Line: "- **Web**: Next.js 15 + React 18"},
	{Folder: "backend", Line: "- **Backend**: FastAPI + PostgreSQL + SQLAlchemy"},
}

func renderReadme(name string, preset stack.Preset, ports Ports) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	b.WriteString("Scaffolded by rapids.\n\n")
	b.WriteString("## Stack\n\n")
	for _, note := range stackNotes {
		if preset.HasFolder(note.Folder) {
			b.WriteString(note.Line + "\n")
		}
	}
	if preset.Compose {
		fence := strings.Repeat("`", 3)
		b.WriteString("\n## Quick Start\n\n")
		b.WriteString(fence + "bash\n")
		b.WriteString("# Start all services\n")
		b.WriteString("docker compose up -d\n\n")
		fmt.Fprintf(&b, "# Backend: http://localhost:%d\n", ports.Backend)
		fmt.Fprintf(&b, "# Web: http://localhost:%d\n", ports.Web)
		b.WriteString(fence + "\n")
	}
	b.WriteString("\n## Agents\n\n")
	b.WriteString("Agents installed by `rapids install` are available in every project.\n")
	b.WriteString("Run `rapids agent` to list them and `rapids agent <name>` for instructions.\n\n")
	b.WriteString("## Generators\n\n")
	b.WriteString("Run `rapids generate <template> <entity>` to add layered skeletons.\n")
	return b.String()
}
