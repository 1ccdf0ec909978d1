package setup

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const (
	testSubscription = "72f988bf-86f1-41af-91ab-2d7cd011db48"
	testSPID         = "b510c1ff-358c-4ed4-96c8-eb23f42bb65b"
	testSPPassword   = "a510c1ff-358c-4ed4-96c8-eb23f42bbc5b"
	testTenant       = "72f988bf-86f1-41af-91ab-2d7cd011db47"
)

func completedContext() *Context {
	rc := NewContext("orgName", "projectName", "accessToken", "workspace")
	rc.SubscriptionID = testSubscription
	rc.MarkProjectCreated()
	rc.MarkHLDScaffolded()
	rc.MarkManifestScaffolded()
	rc.MarkHLDToManifestPipelineCreated()
	return rc
}

func readLines(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(string(content), "\n")
}

func TestWriteStatusLog(t *testing.T) {
	t.Parallel()

	t.Run("nil context writes nothing", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		if err := WriteStatusLog(fs, nil, "/tmp/setup.log"); err != nil {
			t.Fatal(err)
		}
		if ok, _ := afero.Exists(fs, "/tmp/setup.log"); ok {
			t.Error("status log was written for a nil context")
		}
	})

	t.Run("completed run", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		if err := WriteStatusLog(fs, completedContext(), "/tmp/setup.log"); err != nil {
			t.Fatal(err)
		}

		want := []string{
			"azdo_org_name=orgName",
			"azdo_project_name=projectName",
			"azdo_pat=*********",
			"az_create_app=false",
			"az_create_sp=false",
			"az_sp_id=",
			"az_sp_password=",
			"az_sp_tenant=",
			"az_subscription_id=" + testSubscription,
			"workspace: workspace",
			"Project Created: yes",
			"High Level Definition Repo Scaffolded: yes",
			"Manifest Repo Scaffolded: yes",
			"HLD to Manifest Pipeline Created: yes",
			"Service Principal Created: no",
			"Status: Completed",
		}
		if got := readLines(t, fs, "/tmp/setup.log"); !reflect.DeepEqual(got, want) {
			t.Errorf("status log =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
		}
	})

	t.Run("existing log is replaced", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, "/tmp/setup.log", []byte("dummy"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := WriteStatusLog(fs, completedContext(), "/tmp/setup.log"); err != nil {
			t.Fatal(err)
		}

		lines := readLines(t, fs, "/tmp/setup.log")
		if lines[0] != "azdo_org_name=orgName" || len(lines) != 16 {
			t.Errorf("status log was not replaced: %q", lines)
		}
	})

	t.Run("app and service principal values", func(t *testing.T) {
		t.Parallel()

		rc := completedContext()
		rc.ToCreateAppRepo = true
		rc.ToCreateServicePrincipal = true
		rc.ServicePrincipalID = testSPID
		rc.ServicePrincipalPassword = testSPPassword
		rc.ServicePrincipalTenantID = testTenant

		fs := afero.NewMemMapFs()
		if err := WriteStatusLog(fs, rc, "/tmp/setup.log"); err != nil {
			t.Fatal(err)
		}

		want := []string{
			"azdo_org_name=orgName",
			"azdo_project_name=projectName",
			"azdo_pat=*********",
			"az_create_app=true",
			"az_create_sp=true",
			"az_sp_id=" + testSPID,
			"az_sp_password=********",
			"az_sp_tenant=" + testTenant,
			"az_subscription_id=" + testSubscription,
			"workspace: workspace",
			"Project Created: yes",
			"High Level Definition Repo Scaffolded: yes",
			"Manifest Repo Scaffolded: yes",
			"HLD to Manifest Pipeline Created: yes",
			"Service Principal Created: no",
			"Status: Completed",
		}
		got := readLines(t, fs, "/tmp/setup.log")
		if !reflect.DeepEqual(got, want) {
			t.Errorf("status log =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
		}
		for _, line := range got {
			if strings.Contains(line, testSPPassword) || strings.Contains(line, "accessToken") {
				t.Errorf("secret leaked into status log: %q", line)
			}
		}
	})

	t.Run("failed run", func(t *testing.T) {
		t.Parallel()

		rc := completedContext()
		rc.SubscriptionID = ""
		rc.Fail(errors.New("things broke"))

		fs := afero.NewMemMapFs()
		if err := WriteStatusLog(fs, rc, "/tmp/setup.log"); err != nil {
			t.Fatal(err)
		}

		want := []string{
			"azdo_org_name=orgName",
			"azdo_project_name=projectName",
			"azdo_pat=*********",
			"az_create_app=false",
			"az_create_sp=false",
			"az_sp_id=",
			"az_sp_password=",
			"az_sp_tenant=",
			"az_subscription_id=",
			"workspace: workspace",
			"Project Created: yes",
			"High Level Definition Repo Scaffolded: yes",
			"Manifest Repo Scaffolded: yes",
			"HLD to Manifest Pipeline Created: yes",
			"Service Principal Created: no",
			"Error: things broke",
			"Status: Incomplete",
		}
		if got := readLines(t, fs, "/tmp/setup.log"); !reflect.DeepEqual(got, want) {
			t.Errorf("status log =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
		}
	})
}

func TestRenderHasNoTrailingNewline(t *testing.T) {
	t.Parallel()

	out := Render(completedContext())
	if strings.HasSuffix(out, "\n") {
		t.Error("rendered status log ends with a newline")
	}
}

func TestServicePrincipalCreated(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		request bool
		id      string
		mark    bool
		want    bool
	}{
		{"not requested", false, testSPID, true, false},
		{"no id", true, "", true, false},
		{"not confirmed", true, testSPID, false, false},
		{"created", true, testSPID, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rc := completedContext()
			rc.ToCreateServicePrincipal = tc.request
			rc.ServicePrincipalID = tc.id
			if tc.mark {
				rc.MarkServicePrincipalCreated()
			}

			if got := rc.ServicePrincipalCreated(); got != tc.want {
				t.Errorf("ServicePrincipalCreated() = %v, want %v", got, tc.want)
			}
			line := "Service Principal Created: no"
			if tc.want {
				line = "Service Principal Created: yes"
			}
			if !strings.Contains(Render(rc), line) {
				t.Errorf("rendered log missing %q", line)
			}
		})
	}
}

func TestContextFail(t *testing.T) {
	t.Parallel()

	rc := NewContext("org", "project", "token", "ws")
	if rc.Status() != "Completed" {
		t.Errorf("Status() = %q before any failure", rc.Status())
	}
	if rc.Fail(nil) {
		t.Error("Fail(nil) recorded an error")
	}

	if !rc.Fail(errors.New("first")) {
		t.Error("first error was not recorded")
	}
	if rc.Fail(errors.New("second")) {
		t.Error("second error replaced the first")
	}
	if rc.ErrorMessage() != "first" || rc.Status() != "Incomplete" {
		t.Errorf("error = %q, status = %q", rc.ErrorMessage(), rc.Status())
	}
}

func TestContextLogValueIsRedacted(t *testing.T) {
	t.Parallel()

	rc := completedContext()
	rc.ServicePrincipalPassword = testSPPassword

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("setup", "context", rc)

	out := buf.String()
	if strings.Contains(out, "accessToken") || strings.Contains(out, testSPPassword) {
		t.Errorf("log output contains a secret: %s", out)
	}
	if !strings.Contains(out, "context.azdo_project_name=projectName") {
		t.Errorf("log output missing project: %s", out)
	}
}

func TestOrganizationURL(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"fabrikam":                          "https://dev.azure.com/fabrikam",
		"https://dev.azure.com/fabrikam":    "https://dev.azure.com/fabrikam",
		"https://fabrikam.visualstudio.com": "https://fabrikam.visualstudio.com",
	}
	for org, want := range testCases {
		rc := NewContext(org, "p", "t", "w")
		if got := rc.OrganizationURL(); got != want {
			t.Errorf("OrganizationURL(%q) = %q, want %q", org, got, want)
		}
	}
}
