package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreYAML = `openapi: 3.0.3
info:
  title: Petstore
  version: "1.2.0"
servers:
  - url: https://api.example.com
paths:
  /pets:
    post:
      operationId: createPet
      responses:
        201:
          description: created
    get:
      operationId: listPets
      x-route-aliases: ["/animals", "/critters"]
      x-custom-tags:
        - name: Public
          category: visibility
          color: green
      x-permissions:
        required: [pets:read]
        roles: [viewer]
      responses:
        200:
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
  /admin:
    delete:
      responses:
        "204":
          description: gone
    trace:
      responses:
        default:
          description: echo
    get:
      responses:
        "200":
          description: ok
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
`

func TestParse_DocumentFields(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.Version())
	require.NotNil(t, doc.GetInfo())
	assert.Equal(t, "Petstore", doc.Info.Title)
	assert.Equal(t, "1.2.0", doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://api.example.com", doc.Servers[0].URL)
	assert.Equal(t, []string{"/pets", "/admin"}, doc.GetPaths().Keys())

	item, ok := doc.Path("/pets")
	require.True(t, ok)
	require.NotNil(t, item.Get)
	assert.Equal(t, "listPets", item.Get.OperationID)
	assert.Contains(t, item.Get.Responses, "200")
	assert.Contains(t, item.Post.Responses, "201")

	_, ok = doc.Path("/missing")
	assert.False(t, ok)

	pet := doc.Components.Schemas["Pet"]
	require.NotNil(t, pet)
	require.NotNil(t, pet.Schema)
	assert.True(t, pet.Schema.Type.Is("object"))
	assert.Equal(t, []string{"name"}, pet.Schema.Required)
}

func TestParse_LiftsExtensionFacets(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	op := doc.Paths.Get("/pets").Get
	assert.Equal(t, []string{"/animals", "/critters"}, op.RouteAliases)
	assert.Equal(t, []CustomTag{{Name: "Public", Category: "visibility", Color: "green"}}, op.CustomTags)
	require.NotNil(t, op.Permissions)
	assert.Equal(t, []string{"pets:read"}, op.Permissions.Required)
	assert.Equal(t, []string{"viewer"}, op.Permissions.Roles)
	assert.Nil(t, op.Permissions.Scopes)
	assert.Empty(t, op.Extensions)

	items := op.Responses["200"].Content["application/json"].Schema.Schema.Items
	assert.Equal(t, "#/components/schemas/Pet", items.Pointer())
}

func TestParse_MalformedExtensionsAreKeptRaw(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(`openapi: 3.1.0
info: {title: T, version: v1}
paths:
  /x:
    get:
      x-route-aliases: /not-a-list
      x-custom-tags:
        - color: red
      x-permissions:
        required: [1, 2]
      x-internal: true
      responses: {}
`))
	require.NoError(t, err)

	op := doc.Paths.Get("/x").Get
	assert.Nil(t, op.RouteAliases)
	assert.Nil(t, op.CustomTags)
	assert.Nil(t, op.Permissions)
	assert.Equal(t, "/not-a-list", op.Extensions[ExtRouteAliases])
	assert.Contains(t, op.Extensions, ExtCustomTags)
	assert.Contains(t, op.Extensions, ExtPermissions)
	assert.Equal(t, true, op.Extensions["x-internal"])
}

func TestParse_JSON(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(`{
  "openapi": "3.0.0",
  "info": {"title": "J", "version": "2"},
  "paths": {"/b": {"get": {"responses": {"200": {"description": "ok"}}}}, "/a": {}}
}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/b", "/a"}, doc.Paths.Keys())
	assert.Len(t, doc.Operations(), 1)
}

func TestParse_FormatError(t *testing.T) {
	t.Parallel()
	for name, input := range map[string]string{
		"unterminated json": `{"openapi": `,
		"unclosed sequence": "openapi: [unclosed",
		"empty":             "",
		"whitespace":        "   \n\n",
	} {
		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(input))
			require.Error(t, err)
			assert.True(t, IsCode(err, FormatError), "got %v", err)
		})
	}
}

func TestParseObject_ValidationOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input map[string]any
		field string
	}{
		{
			name:  "missing openapi",
			input: map[string]any{"info": map[string]any{}},
			field: "openapi",
		},
		{
			name:  "swagger 2",
			input: map[string]any{"openapi": "2.0", "paths": map[string]any{}},
			field: "openapi",
		},
		{
			name:  "numeric version",
			input: map[string]any{"openapi": 3.1},
			field: "openapi",
		},
		{
			name:  "missing info",
			input: map[string]any{"openapi": "3.0.0", "paths": map[string]any{}},
			field: "info",
		},
		{
			name:  "title checked before version",
			input: map[string]any{"openapi": "3.0.0", "info": map[string]any{}},
			field: "info.title",
		},
		{
			name:  "empty title",
			input: map[string]any{"openapi": "3.0.0", "info": map[string]any{"title": "", "version": "1"}},
			field: "info.title",
		},
		{
			name:  "missing version",
			input: map[string]any{"openapi": "3.0.0", "info": map[string]any{"title": "T"}},
			field: "info.version",
		},
		{
			name:  "missing paths",
			input: map[string]any{"openapi": "3.0.0", "info": map[string]any{"title": "T", "version": "1"}},
			field: "paths",
		},
		{
			name:  "paths not a mapping",
			input: map[string]any{"openapi": "3.0.0", "info": map[string]any{"title": "T", "version": "1"}, "paths": []any{}},
			field: "paths",
		},
		{
			name:  "non-string scalars count as present",
			input: map[string]any{"openapi": "3.0.0", "info": map[string]any{"title": 0, "version": true}, "paths": map[string]any{}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := ParseObject(tt.input)
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, "0", doc.Info.Title)
				assert.Equal(t, "true", doc.Info.Version)
				return
			}
			require.Error(t, err)
			var se *SpecError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, ValidationError, se.Code)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestParse_MisshapedMembersAreKeptRaw(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(`openapi: 3.0.3
info: {title: T, version: "1"}
tags: [users]
paths:
  /pets:
    get:
      tags: [{name: read}]
      responses:
        "200": {description: ok}
  /broken: just text
components:
  schemas:
    Pet:
      type: object
      properties:
        names:
          type: array
          items: [{type: string}]
`))
	require.NoError(t, err)

	assert.Nil(t, doc.Tags)
	assert.Equal(t, []any{"users"}, doc.Unparsed["tags"])

	get := doc.Paths.Get("/pets").Get
	require.NotNil(t, get)
	assert.Nil(t, get.Tags)
	assert.Contains(t, get.Unparsed, "tags")
	assert.Contains(t, get.Responses, "200")
	assert.Equal(t, []string{"/pets"}, doc.Paths.Keys())

	names := doc.Components.Schemas["Pet"].Schema.Properties["names"].Schema
	require.NotNil(t, names)
	assert.True(t, names.Type.Is("array"))
	assert.Nil(t, names.Items)
	assert.Equal(t, []any{map[string]any{"type": "string"}}, names.Unparsed["items"])

	out, err := doc.MarshalYAMLBytes()
	require.NoError(t, err)
	again := mustParse(t, string(out))
	tree, err := again.Tree()
	require.NoError(t, err)
	assert.Equal(t, []any{"users"}, tree["tags"])
	assert.Equal(t, "just text", tree["paths"].(map[string]any)["/broken"])
	pet := tree["components"].(map[string]any)["schemas"].(map[string]any)["Pet"].(map[string]any)
	items := pet["properties"].(map[string]any)["names"].(map[string]any)["items"]
	assert.Equal(t, []any{map[string]any{"type": "string"}}, items)
}

func TestParse_NonMappingRootFailsFirstCheck(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("- just\n- a list\n"))
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ValidationError, se.Code)
	assert.Equal(t, "openapi", se.Field)
}

func TestParseObject_VersionRoundTrip(t *testing.T) {
	t.Parallel()
	for _, version := range []string{"3.0.0", "3.0.3", "3.1.0"} {
		doc, err := ParseObject(map[string]any{
			"openapi": version,
			"info":    map[string]any{"title": "T", "version": 7},
			"paths": map[string]any{
				"/z": map[string]any{"get": map[string]any{"responses": map[string]any{}}},
				"/a": map[string]any{"put": map[string]any{"responses": map[string]any{}}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, version, doc.Version())
		assert.Equal(t, "7", doc.Info.Version)
		assert.Equal(t, []string{"/a", "/z"}, doc.Paths.Keys())
	}
}

func TestOperations_FlattenOrder(t *testing.T) {
	t.Parallel()
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	ops := doc.Operations()
	var ids []string
	for _, ep := range ops {
		ids = append(ids, ep.ID())
	}
	assert.Equal(t, []string{
		"GET /pets",
		"POST /pets",
		"GET /admin",
		"DELETE /admin",
		"TRACE /admin",
	}, ids)

	total := 0
	for _, p := range doc.Paths.Keys() {
		for _, m := range Methods {
			if doc.Paths.Get(p).Operation(m) != nil {
				total++
			}
		}
	}
	assert.Len(t, ops, total)
}

func TestParser_State(t *testing.T) {
	t.Parallel()
	p := NewParser()

	_, ok := p.Spec()
	assert.False(t, ok)
	_, err := p.Paths()
	assert.True(t, IsCode(err, StateError))
	_, err = p.Info()
	assert.True(t, IsCode(err, StateError))
	_, err = p.Version()
	assert.True(t, IsCode(err, StateError))
	_, err = p.Operations()
	assert.True(t, IsCode(err, StateError))
	_, _, err = p.Path("/pets")
	assert.True(t, IsCode(err, StateError))

	first, err := p.Parse([]byte(petstoreYAML))
	require.NoError(t, err)
	version, err := p.Version()
	require.NoError(t, err)
	assert.Equal(t, "3.0.3", version)

	_, err = p.ParseObject(map[string]any{"openapi": "3.0.0"})
	require.True(t, IsCode(err, ValidationError))

	current, ok := p.Spec()
	require.True(t, ok)
	assert.Same(t, first, current)

	item, found, err := p.Path("/admin")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, item.Delete)

	info, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, "Petstore", info.Title)
}
