package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
)

// clearServeEnv isolates a test from the caller's environment.
func clearServeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"JOLTSMS_API_KEY", "JOLTSMS_API_URL", "JOLTSMS_TRANSPORT", "JOLTSMS_HTTP_ADDR",
		"JOLTSMS_HTTP_AUTH_TOKEN", "JOLTSMS_READ_ONLY", "JOLTSMS_DEBUG", "JOLTSMS_LOG_FORMAT",
		"JOLTSMS_METRICS_ENABLED", "JOLTSMS_METRICS_ADDR", "METRICS_ENABLED", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func loadConfigWith(t *testing.T, env map[string]string, flags map[string]string) (*ServeConfig, error) {
	t.Helper()
	clearServeEnv(t)
	for k, v := range env {
		t.Setenv(k, v)
	}

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	addServeFlags(fs)
	for k, v := range flags {
		if err := fs.Set(k, v); err != nil {
			t.Fatalf("failed to set flag %s: %v", k, err)
		}
	}

	v, err := newServeViper(fs)
	if err != nil {
		t.Fatalf("failed to create viper: %v", err)
	}
	return loadServeConfig(v)
}

func TestLoadServeConfig_Defaults(t *testing.T) {
	config, err := loadConfigWith(t, map[string]string{"JOLTSMS_API_KEY": "jolt_sk_abc"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.APIKey != "jolt_sk_abc" {
		t.Errorf("APIKey = %q, want jolt_sk_abc", config.APIKey)
	}
	if config.APIURL != joltsms.DefaultBaseURL {
		t.Errorf("APIURL = %q, want %q", config.APIURL, joltsms.DefaultBaseURL)
	}
	if config.Transport != TransportStdio {
		t.Errorf("Transport = %q, want %q", config.Transport, TransportStdio)
	}
	if config.HTTPAddr != server.DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q, want %q", config.HTTPAddr, server.DefaultHTTPAddr)
	}
	if config.ReadOnly {
		t.Error("expected ReadOnly to default to false")
	}
	if config.Metrics.Enabled {
		t.Error("expected metrics to be disabled by default")
	}
	if config.Metrics.Addr != server.DefaultMetricsAddr {
		t.Errorf("Metrics.Addr = %q, want %q", config.Metrics.Addr, server.DefaultMetricsAddr)
	}
}

func TestLoadServeConfig_MissingAPIKey(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unset", env: nil},
		{name: "whitespace only", env: map[string]string{"JOLTSMS_API_KEY": "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfigWith(t, tt.env, nil)
			if !errors.Is(err, errMissingAPIKey) {
				t.Fatalf("expected errMissingAPIKey, got %v", err)
			}
			if !strings.Contains(err.Error(), "JOLTSMS_API_KEY") {
				t.Errorf("expected error to name JOLTSMS_API_KEY, got %q", err.Error())
			}
		})
	}
}

func TestLoadServeConfig_Environment(t *testing.T) {
	config, err := loadConfigWith(t, map[string]string{
		"JOLTSMS_API_KEY":         "jolt_sk_abc",
		"JOLTSMS_API_URL":         "https://staging.joltsms.com",
		"JOLTSMS_TRANSPORT":       "Streamable-HTTP",
		"JOLTSMS_HTTP_ADDR":       ":8181",
		"JOLTSMS_HTTP_AUTH_TOKEN": "secret",
		"JOLTSMS_READ_ONLY":       "true",
		"METRICS_ENABLED":         "true",
		"METRICS_ADDR":            ":9191",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.APIURL != "https://staging.joltsms.com" {
		t.Errorf("APIURL = %q", config.APIURL)
	}
	if config.Transport != TransportStreamableHTTP {
		t.Errorf("Transport = %q, want %q", config.Transport, TransportStreamableHTTP)
	}
	if config.HTTPAddr != ":8181" {
		t.Errorf("HTTPAddr = %q, want :8181", config.HTTPAddr)
	}
	if config.HTTPAuthToken != "secret" {
		t.Errorf("HTTPAuthToken = %q, want secret", config.HTTPAuthToken)
	}
	if !config.ReadOnly {
		t.Error("expected ReadOnly from JOLTSMS_READ_ONLY")
	}
	if !config.Metrics.Enabled || config.Metrics.Addr != ":9191" {
		t.Errorf("Metrics = %+v, want enabled on :9191", config.Metrics)
	}
}

func TestLoadServeConfig_FlagOverridesEnvironment(t *testing.T) {
	config, err := loadConfigWith(t,
		map[string]string{"JOLTSMS_API_KEY": "jolt_sk_env", "JOLTSMS_TRANSPORT": "streamable-http"},
		map[string]string{"api-key": "jolt_sk_flag", "transport": "stdio"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.APIKey != "jolt_sk_flag" {
		t.Errorf("APIKey = %q, want jolt_sk_flag", config.APIKey)
	}
	if config.Transport != TransportStdio {
		t.Errorf("Transport = %q, want %q", config.Transport, TransportStdio)
	}
}

func TestLoadServeConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		want  string
	}{
		{name: "unknown transport", flags: map[string]string{"transport": "sse"}, want: "Transport"},
		{name: "bad api url", flags: map[string]string{"api-url": "not a url"}, want: "APIURL"},
		{name: "unknown log format", flags: map[string]string{"log-format": "xml"}, want: "LogFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfigWith(t, map[string]string{"JOLTSMS_API_KEY": "jolt_sk_abc"}, tt.flags)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %s, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestRegisterAllTools(t *testing.T) {
	writeTools := []string{
		"joltsms_update_number",
		"joltsms_provision_number",
		"joltsms_release_number",
		"joltsms_mark_read",
	}

	tests := []struct {
		name      string
		readOnly  bool
		wantCount int
	}{
		{name: "read-write", readOnly: false, wantCount: 10},
		{name: "read-only", readOnly: true, wantCount: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := joltsms.NewClient(joltsms.DefaultBaseURL, "jolt_sk_test")
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}
			sc, err := server.NewServerContext(context.Background(), client, server.WithReadOnly(tt.readOnly))
			if err != nil {
				t.Fatalf("failed to create server context: %v", err)
			}
			defer func() { _ = sc.Shutdown() }()

			mcpSrv := mcpserver.NewMCPServer(serverName, "test", mcpserver.WithToolCapabilities(true))
			if err := registerAllTools(mcpSrv, sc, tt.readOnly); err != nil {
				t.Fatalf("registerAllTools() error = %v", err)
			}

			tools := mcpSrv.ListTools()
			if len(tools) != tt.wantCount {
				t.Errorf("registered %d tools, want %d", len(tools), tt.wantCount)
			}
			for _, name := range writeTools {
				_, found := tools[name]
				if found == tt.readOnly {
					t.Errorf("tool %s registered = %v in %s mode", name, found, tt.name)
				}
			}
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"joltsms_list_numbers", categoryNumbers},
		{"joltsms_get_number", categoryNumbers},
		{"joltsms_provision_number", categoryNumbers},
		{"joltsms_list_messages", categoryMessages},
		{"joltsms_mark_read", categoryMessages},
		{"joltsms_wait_for_sms", categoryOTP},
		{"joltsms_get_latest_otp", categoryOTP},
		{"joltsms_billing_status", categoryBilling},
		{"other_tool", categoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getCategoryFromToolName(tt.name); got != tt.want {
				t.Errorf("getCategoryFromToolName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("joltsms_get_number",
		mcp.WithDescription("Get full details for a single phone number."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("number_id", mcp.Required(), mcp.Description("Number ID or phone number")),
		mcp.WithNumber("limit"),
	)

	got := generateToolMarkdown(tool)

	for _, want := range []string{
		"### joltsms_get_number\n\n",
		"Get full details for a single phone number.\n\n",
		"**Access:** read\n\n",
		"- `limit` (optional): number parameter\n",
		"- `number_id` (required): Number ID or phone number\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected markdown to contain %q, got:\n%s", want, got)
		}
	}
	if strings.Index(got, "`limit`") > strings.Index(got, "`number_id`") {
		t.Error("expected arguments to be sorted by name")
	}
}

func TestListAllTools(t *testing.T) {
	tools, err := listAllTools()
	if err != nil {
		t.Fatalf("listAllTools() error = %v", err)
	}
	if len(tools) != 10 {
		t.Errorf("listAllTools() returned %d tools, want 10", len(tools))
	}

	markdown := generateToolsMarkdown(tools)
	for _, category := range []string{categoryNumbers, categoryMessages, categoryOTP, categoryBilling} {
		if !strings.Contains(markdown, "## "+category+"\n") {
			t.Errorf("expected a %s section", category)
		}
	}
	if strings.Contains(markdown, "## "+categoryOther) {
		t.Error("expected every tool to have a category")
	}
}
