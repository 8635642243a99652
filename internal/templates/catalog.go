package templates

import "github.com/rapids-dev/rapids/internal/stack"

// FileSpec pairs a path template with a body template. Both are rendered
// with casing.Forms.
type FileSpec struct {
	Path string
	Body string
}

// Template is one entry of the closed generator set.
type Template struct {
	ID          string
	Description string
	Role        stack.Role
	Target      string
	Family      string
	Files       []FileSpec
}

// Catalog is the closed set of templates, in display order.
var Catalog = []Template{
	{
		ID:          "backend-api",
		Description: "FastAPI route, schema, model and service",
		Role:        stack.RoleBackend,
		Target:      "backend/app",
		Family:      ".py",
		Files: []FileSpec{
			{Path: "api/routes/{{.Snake}}.py", Body: backendRoute},
			{Path: "schemas/{{.Snake}}.py", Body: backendSchema},
			{Path: "models/{{.Snake}}.py", Body: backendModel},
			{Path: "services/{{.Snake}}_service.py", Body: backendService},
		},
	},
	{
		ID:          "web-page",
		Description: "Next.js page, view component and API client",
		Role:        stack.RoleWeb,
		Target:      "web",
		Family:      ".tsx/.ts",
		Files: []FileSpec{
			{Path: "app/{{.Kebab}}/page.tsx", Body: webPage},
			{Path: "components/{{.Kebab}}/{{.Pascal}}View.tsx", Body: webView},
			{Path: "lib/api/{{.Kebab}}.ts", Body: webClient},
		},
	},
	{
		ID:          "mobile-feature",
		Description: "Flutter screen, state and repository",
		Role:        stack.RoleMobile,
		Target:      "mobile/lib/features",
		Family:      ".dart",
		Files: []FileSpec{
			{Path: "{{.Snake}}/presentation/{{.Snake}}_screen.dart", Body: mobileScreen},
			{Path: "{{.Snake}}/state/{{.Snake}}_provider.dart", Body: mobileProvider},
			{Path: "{{.Snake}}/data/{{.Snake}}_repository.dart", Body: mobileRepository},
		},
	},
	{
		ID:          "design-system",
		Description: "Shared UI component with barrel export",
		Role:        stack.RoleWeb,
		Target:      "web/components/ui",
		Family:      ".tsx/.ts",
		Files: []FileSpec{
			{Path: "{{.Kebab}}/{{.Pascal}}.tsx", Body: uiComponent},
			{Path: "{{.Kebab}}/index.ts", Body: uiIndex},
		},
	},
}

// Lookup finds a template by id.
func Lookup(id string) (Template, bool) {
	for _, t := range Catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

func IDs() []string {
	ids := make([]string, len(Catalog))
	for i, t := range Catalog {
		ids[i] = t.ID
	}
	return ids
}

const backendRoute = `from fastapi import APIRouter, HTTPException, status

from app.schemas.{{.Snake}} import {{.Pascal}}Create, {{.Pascal}}Read
from app.services.{{.Snake}}_service import {{.Pascal}}Service

router = APIRouter(prefix="/{{.Kebab}}", tags=["{{.Title}}"])
service = {{.Pascal}}Service()


@router.get("/", response_model=list[{{.Pascal}}Read])
async def list_{{.Snake}}():
    return service.list()


@router.get("/{item_id}", response_model={{.Pascal}}Read)
async def get_{{.Snake}}(item_id: int):
    item = service.get(item_id)
    if item is None:
        raise HTTPException(status_code=status.HTTP_404_NOT_FOUND, detail="{{.Title}} not found")
    return item


@router.post("/", response_model={{.Pascal}}Read, status_code=status.HTTP_201_CREATED)
async def create_{{.Snake}}(payload: {{.Pascal}}Create):
    return service.create(payload)


@router.delete("/{item_id}", status_code=status.HTTP_204_NO_CONTENT)
async def delete_{{.Snake}}(item_id: int):
    if not service.delete(item_id):
        raise HTTPException(status_code=status.HTTP_404_NOT_FOUND, detail="{{.Title}} not found")
`

const backendSchema = `from datetime import datetime

from pydantic import BaseModel, ConfigDict


class {{.Pascal}}Base(BaseModel):
    name: str


class {{.Pascal}}Create({{.Pascal}}Base):
    pass


class {{.Pascal}}Read({{.Pascal}}Base):
    model_config = ConfigDict(from_attributes=True)

    id: int
    created_at: datetime
`

const backendModel = `from dataclasses import dataclass, field
from datetime import datetime, timezone


@dataclass
class {{.Pascal}}:
    id: int
    name: str
    created_at: datetime = field(default_factory=lambda: datetime.now(timezone.utc))
`

const backendService = `from app.models.{{.Snake}} import {{.Pascal}}
from app.schemas.{{.Snake}} import {{.Pascal}}Create


class {{.Pascal}}Service:
    def __init__(self) -> None:
        self._items: dict[int, {{.Pascal}}] = {}
        self._next_id = 1

    def list(self) -> list[{{.Pascal}}]:
        return list(self._items.values())

    def get(self, item_id: int) -> {{.Pascal}} | None:
        return self._items.get(item_id)

    def create(self, payload: {{.Pascal}}Create) -> {{.Pascal}}:
        item = {{.Pascal}}(id=self._next_id, name=payload.name)
        self._items[item.id] = item
        self._next_id += 1
        return item

    def delete(self, item_id: int) -> bool:
        return self._items.pop(item_id, None) is not None
`

const webPage = `import { {{.Pascal}}View } from "@/components/{{.Kebab}}/{{.Pascal}}View";
import { list{{.Pascal}} } from "@/lib/api/{{.Kebab}}";

export default async function {{.Pascal}}Page() {
  const items = await list{{.Pascal}}();
  return <{{.Pascal}}View items={items} />;
}
`

const webView = `import type { {{.Pascal}} } from "@/lib/api/{{.Kebab}}";

type {{.Pascal}}ViewProps = {
  items: {{.Pascal}}[];
};

export function {{.Pascal}}View({ items }: {{.Pascal}}ViewProps) {
  if (items.length === 0) {
    return <p>No {{.Title}} yet.</p>;
  }
  return (
    <ul>
      {items.map((item) => (
        <li key={item.id}>{item.name}</li>
      ))}
    </ul>
  );
}
`

const webClient = `export type {{.Pascal}} = {
  id: number;
  name: string;
};

const BASE_URL = process.env.NEXT_PUBLIC_API_URL ?? "http://localhost:8000";

export async function list{{.Pascal}}(): Promise<{{.Pascal}}[]> {
  const res = await fetch(BASE_URL + "/{{.Kebab}}/", { cache: "no-store" });
  if (!res.ok) {
    throw new Error("Failed to load {{.Kebab}}: " + res.status);
  }
  return res.json();
}

export async function create{{.Pascal}}(input: Omit<{{.Pascal}}, "id">): Promise<{{.Pascal}}> {
  const res = await fetch(BASE_URL + "/{{.Kebab}}/", {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify(input),
  });
  if (!res.ok) {
    throw new Error("Failed to create {{.Kebab}}: " + res.status);
  }
  return res.json();
}
`

const mobileScreen = `import 'package:flutter/material.dart';

import '../state/{{.Snake}}_provider.dart';

class {{.Pascal}}Screen extends StatefulWidget {
  const {{.Pascal}}Screen({super.key});

  @override
  State<{{.Pascal}}Screen> createState() => _{{.Pascal}}ScreenState();
}

class _{{.Pascal}}ScreenState extends State<{{.Pascal}}Screen> {
  final {{.Pascal}}Provider _provider = {{.Pascal}}Provider();

  @override
  void initState() {
    super.initState();
    _provider.load();
  }

  @override
  void dispose() {
    _provider.dispose();
    super.dispose();
  }

  @override
  Widget build(BuildContext context) {
    return Scaffold(
      appBar: AppBar(title: const Text('{{.Title}}')),
      body: AnimatedBuilder(
        animation: _provider,
        builder: (context, _) {
          if (_provider.loading) {
            return const Center(child: CircularProgressIndicator());
          }
          return ListView(
            children: [
              for (final item in _provider.items) ListTile(title: Text(item)),
            ],
          );
        },
      ),
    );
  }
}
`

const mobileProvider = `import 'package:flutter/foundation.dart';

import '../data/{{.Snake}}_repository.dart';

class {{.Pascal}}Provider extends ChangeNotifier {
  {{.Pascal}}Provider([{{.Pascal}}Repository? repository])
      : _repository = repository ?? {{.Pascal}}Repository();

  final {{.Pascal}}Repository _repository;
  List<String> items = const [];
  bool loading = false;

  Future<void> load() async {
    loading = true;
    notifyListeners();
    items = await _repository.fetchAll();
    loading = false;
    notifyListeners();
  }
}
`

const mobileRepository = `class {{.Pascal}}Repository {
  Future<List<String>> fetchAll() async {
    return const [];
  }
}
`

const uiComponent = `import type { ReactNode } from "react";

export type {{.Pascal}}Props = {
  children?: ReactNode;
  className?: string;
};

export function {{.Pascal}}({ children, className }: {{.Pascal}}Props) {
  const classes = ["{{.Kebab}}", className].filter(Boolean).join(" ");
  return <div className={classes}>{children}</div>;
}
`

const uiIndex = `export { {{.Pascal}} } from "./{{.Pascal}}";
export type { {{.Pascal}}Props } from "./{{.Pascal}}";
`
