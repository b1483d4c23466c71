package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/openapi-xt/internal/spec"
)

const accountsSpec = `openapi: 3.0.3
info:
  title: Accounts API
  version: "2.1.0"
paths:
  /users:
    get:
      operationId: listUsers
      tags: [users]
      x-route-aliases: [/accounts, /members]
      x-custom-tags:
        - name: Public
          category: visibility
          color: green
      x-permissions:
        required: [users:read]
        roles: [viewer]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/User'
    post:
      operationId: createUser
      tags: [users, admin]
      x-permissions:
        required: [users:write]
        roles: [admin]
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/User'
      responses:
        "201":
          description: created
  /users/{id}:
    get:
      operationId: getUser
      tags: [users]
      x-route-aliases: ["/members/{memberId}"]
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
components:
  schemas:
    User:
      type: object
      properties:
        id:
          type: string
        address:
          $ref: '#/components/schemas/Address'
    Address:
      type: object
      properties:
        city:
          type: string
`

const treeSpec = `openapi: 3.1.0
info: {title: Tree, version: "1"}
paths: {}
components:
  schemas:
    Node:
      type: object
      properties:
        label: {type: string}
        children:
          type: array
          items:
            $ref: '#/components/schemas/Node'
        owner:
          $ref: '#/components/schemas/Owner'
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("execute %v: %v\nstderr: %s", args, err, stderr)
	}
	return out
}

func TestOps_Table(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", accountsSpec)

	out := mustExecute(t, "ops", "--input", path)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d:\n%s", len(lines), out)
	}
	for _, want := range []string{"METHOD", "listUsers", "/accounts,/members", "Public", "users:read", "viewer", "createUser", "getUser"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(lines[1], "GET") || !strings.HasPrefix(lines[2], "POST") {
		t.Errorf("unexpected row order:\n%s", out)
	}
}

func TestOps_Filters(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", accountsSpec)

	cases := []struct {
		args []string
		want []string
	}{
		{[]string{"--category", "visibility"}, []string{"listUsers"}},
		{[]string{"--methods", "POST"}, []string{"createUser"}},
		{[]string{"--exclude-tags", "admin"}, []string{"listUsers", "getUser"}},
		{[]string{"--paths", `\{id\}$`}, []string{"getUser"}},
		{[]string{"--category", "nothing"}, []string{}},
	}
	for _, tc := range cases {
		args := append([]string{"ops", "-i", path, "-f", "json"}, tc.args...)
		out := mustExecute(t, args...)

		var views []operationView
		if err := json.Unmarshal([]byte(out), &views); err != nil {
			t.Fatalf("%v: decode: %v\n%s", tc.args, err, out)
		}
		var got []string
		for _, v := range views {
			got = append(got, v.OperationID)
		}
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%v: got %v want %v", tc.args, got, tc.want)
		}
	}
}

func TestOps_JSONCarriesExtensions(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", accountsSpec)

	out := mustExecute(t, "ops", "-i", path, "-f", "json", "--methods", "get", "--paths", "^/users$")
	var views []operationView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(views))
	}
	v := views[0]
	if strings.Join(v.Aliases, ",") != "/accounts,/members" {
		t.Errorf("aliases: %v", v.Aliases)
	}
	if len(v.CustomTags) != 1 || v.CustomTags[0].Color != "green" {
		t.Errorf("custom tags: %+v", v.CustomTags)
	}
	if v.Permissions == nil || strings.Join(v.Permissions.Roles, ",") != "viewer" {
		t.Errorf("permissions: %+v", v.Permissions)
	}
}

func TestOps_Stdin(t *testing.T) {
	t.Parallel()
	out, _, err := execute(t, accountsSpec, "ops", "--input", "-", "-f", "yaml")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "operationId: createUser") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestOps_InvalidDocumentIsUsageError(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "bad.yaml", "openapi: 3.0.0\ninfo:\n  version: \"1\"\npaths: {}\n")

	_, _, err := execute(t, "", "ops", "--input", path)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	for _, want := range []string{"info.title", "Location:", "Pointer: #/info/title"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestRoutes_JSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", accountsSpec)

	out := mustExecute(t, "routes", "-i", path, "-f", "json")
	var view routeMapView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var keys []string
	for _, r := range view.Routes {
		keys = append(keys, r.Key)
	}
	want := "GET:/users,GET:/accounts,GET:/members,POST:/users,GET:/users/{id},GET:/members/{memberId}"
	if strings.Join(keys, ",") != want {
		t.Fatalf("keys: got %v", keys)
	}
	if !view.Routes[1].Alias || view.Routes[1].Canonical != "/users" || view.Routes[1].OperationID != "listUsers" {
		t.Errorf("alias route: %+v", view.Routes[1])
	}
	if len(view.Conflicts) != 0 {
		t.Errorf("unexpected conflicts: %+v", view.Conflicts)
	}
}

const collidingSpec = `openapi: 3.0.0
info: {title: Collide, version: "1"}
paths:
  /a:
    get:
      operationId: a
      x-route-aliases: [/shared]
      responses: {"200": {description: ok}}
  /b:
    get:
      operationId: b
      x-route-aliases: [/shared]
      responses: {"200": {description: ok}}
`

func TestRoutes_Conflicts(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", collidingSpec)

	out, stderr, err := execute(t, "", "routes", "-i", path, "-f", "json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var view routeMapView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Conflicts) != 1 || view.Conflicts[0].Current.OperationID != "b" {
		t.Fatalf("conflicts: %+v", view.Conflicts)
	}
	if !strings.Contains(stderr, "route shadowed") {
		t.Errorf("expected a warning on stderr, got %q", stderr)
	}

	_, _, err = execute(t, "", "routes", "-i", path, "--strict")
	if !errors.Is(err, ErrUsage) || !strings.Contains(err.Error(), "GET:/shared") {
		t.Fatalf("expected strict conflict usage error, got %v", err)
	}
}

func TestRoutes_Match(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", accountsSpec)

	out := mustExecute(t, "routes", "-i", path, "--match", "GET /members/42", "-f", "json")
	var view matchView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Route.OperationID != "getUser" || view.Params["memberId"] != "42" {
		t.Fatalf("match: %+v", view)
	}

	table := mustExecute(t, "routes", "-i", path, "--match", "get:/users/7")
	if !strings.Contains(table, "id=7") || !strings.Contains(table, "getUser") {
		t.Fatalf("unexpected table:\n%s", table)
	}

	for _, bad := range []string{"/users/7", "FETCH /users/7", "GET users"} {
		if _, _, err := execute(t, "", "routes", "-i", path, "--match", bad); !errors.Is(err, ErrUsage) {
			t.Errorf("%q: expected usage error, got %v", bad, err)
		}
	}
	if _, _, err := execute(t, "", "routes", "-i", path, "--match", "DELETE /users/7"); !errors.Is(err, ErrUsage) {
		t.Errorf("expected no-match usage error, got %v", err)
	}
}

func TestSchema_ExpandsAndMarksCycles(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tree.yaml", treeSpec)

	out := mustExecute(t, "schema", "Node", "-i", path, "-f", "json")
	var tree map[string]any
	if err := json.Unmarshal([]byte(out), &tree); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	props := tree["properties"].(map[string]any)
	items := props["children"].(map[string]any)["items"].(map[string]any)
	if items["x-circular"] != true || items["$ref"] != "#/components/schemas/Node" {
		t.Errorf("children.items: %v", items)
	}
	owner := props["owner"].(map[string]any)
	if owner["x-missing"] != true {
		t.Errorf("owner: %v", owner)
	}

	yamlOut := mustExecute(t, "schema", "#/components/schemas/Node", "-i", path)
	if !strings.Contains(yamlOut, "x-circular: true") {
		t.Errorf("yaml output:\n%s", yamlOut)
	}
}

func TestSchema_Errors(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tree.yaml", treeSpec)

	if _, _, err := execute(t, "", "schema", "Owner", "-i", path); !errors.Is(err, ErrUsage) {
		t.Errorf("expected usage error for unresolvable ref, got %v", err)
	}
	if _, _, err := execute(t, "", "schema", "Node", "-i", path, "-f", "table"); !errors.Is(err, ErrUsage) {
		t.Errorf("expected usage error for table format, got %v", err)
	}
	if _, _, err := execute(t, "", "schema", "-i", path); err == nil {
		t.Errorf("expected error without a ref argument")
	}
}

func TestExport_RoundTripsExtensions(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "openapi.yaml", accountsSpec)

	out := mustExecute(t, "export", "-i", path, "--validate")
	doc, err := spec.Parse([]byte(out))
	if err != nil {
		t.Fatalf("reparse export: %v", err)
	}
	op := doc.Paths.Get("/users").Get
	if strings.Join(op.RouteAliases, ",") != "/accounts,/members" {
		t.Errorf("aliases lost: %v", op.RouteAliases)
	}
	if op.Permissions == nil || strings.Join(op.Permissions.Required, ",") != "users:read" {
		t.Errorf("permissions lost: %+v", op.Permissions)
	}

	yamlOut := mustExecute(t, "export", "-i", path, "-f", "yaml")
	if !strings.Contains(yamlOut, "x-route-aliases:") {
		t.Errorf("yaml export missing aliases:\n%s", yamlOut)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	good := writeFile(t, "good.yaml", accountsSpec)
	out := mustExecute(t, "validate", "-i", good, "--validate")
	if !strings.Contains(out, "Accounts API 2.1.0") || !strings.Contains(out, "no issues found") {
		t.Fatalf("unexpected report:\n%s", out)
	}

	colliding := writeFile(t, "collide.yaml", collidingSpec)
	if _, _, err := execute(t, "", "validate", "-i", colliding); err != nil {
		t.Fatalf("warnings alone should pass: %v", err)
	}
	if _, _, err := execute(t, "", "validate", "-i", colliding, "--strict"); err == nil {
		t.Fatalf("expected --strict to fail on warnings")
	}
}

func TestValidate_ReportsBrokenExtensionsAndRefs(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "broken.yaml", `openapi: 3.0.0
info: {title: Broken, version: "1"}
paths:
  /x:
    get:
      x-route-aliases: [relative]
      x-custom-tags:
        - color: red
      x-permissions:
        roles: admin
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Gone'
`)
	out, _, err := execute(t, "", "validate", "-i", path, "-f", "json")
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	var rep report
	if derr := json.Unmarshal([]byte(out), &rep); derr != nil {
		t.Fatalf("decode: %v\n%s", derr, out)
	}
	var messages []string
	for _, is := range rep.Issues {
		if is.Level != levelError || is.Location != "GET /x" {
			t.Errorf("unexpected issue %+v", is)
		}
		messages = append(messages, is.Message)
	}
	joined := strings.Join(messages, "\n")
	for _, want := range []string{
		`route alias "relative"`,
		"x-custom-tags entry 0",
		"x-permissions fields",
		"#/components/schemas/Gone does not resolve",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing issue %q in:\n%s", want, joined)
		}
	}
}

func TestValidate_WarnsOnVerbatimMembers(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "extended.yaml", `openapi: 3.0.0
info: {title: Extended, version: "1"}
tags: [users]
paths:
  /x:
    get:
      tags: [{name: read}]
      x-custom-tags: [{name: Admin, priority: 1}]
      x-permissions: {required: [a], note: keep me}
      responses:
        "200": {description: ok}
`)
	out, _, err := execute(t, "", "validate", "-i", path, "-f", "json")
	if err != nil {
		t.Fatalf("warnings alone should pass: %v\n%s", err, out)
	}
	var rep report
	if derr := json.Unmarshal([]byte(out), &rep); derr != nil {
		t.Fatalf("decode: %v\n%s", derr, out)
	}
	var messages []string
	for _, is := range rep.Issues {
		if is.Level != levelWarning {
			t.Errorf("unexpected issue %+v", is)
		}
		messages = append(messages, is.Location+" "+is.Message)
	}
	joined := strings.Join(messages, "\n")
	for _, want := range []string{
		"# tags has an unexpected shape",
		"GET /x tags has an unexpected shape",
		"GET /x x-custom-tags carries unknown attributes",
		"GET /x x-permissions carries unknown fields",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing issue %q in:\n%s", want, joined)
		}
	}

	if _, _, err := execute(t, "", "validate", "-i", path, "--strict"); err == nil {
		t.Fatalf("expected --strict to fail on warnings")
	}
}
