package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/automatest/internal/errors"
	"github.com/AndreyAkinshin/automatest/internal/mail"
	"github.com/AndreyAkinshin/automatest/internal/output"
	"github.com/AndreyAkinshin/automatest/internal/result"
	"github.com/AndreyAkinshin/automatest/internal/runner"
)

// Commands share package-level hooks, so these tests do not run in parallel.

var fixedStart = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

const passingReport = `{"run":{"stats":{"requests":{"total":1,"failed":0},"tests":{"total":1,"failed":0}},` +
	`"executions":[{"item":{"name":"Get user"},"response":{"code":200},"assertions":[{"assertion":"status is 200"}]}]}}`

const passingTranscript = `→ Get user
  GET /users/1 [200 OK, 1kB, 10ms]
  ✓ status is 200
`

const failingTranscript = `→ Get user
  GET /users/1 [500 Internal Server Error, 1kB, 10ms]
  ✗ status is 200
`

// executeCommand runs the root command with captured output.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	saved := out
	out = output.NewWithWriters(&stdout, &stderr, false)
	t.Cleanup(func() { out = saved })

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// workspace is a collections root with one project, a config file and a
// logs directory.
type workspace struct {
	root   string
	logs   string
	config string
}

func newWorkspace(t *testing.T, extraConfig string) workspace {
	t.Helper()

	dir := t.TempDir()
	ws := workspace{
		root:   filepath.Join(dir, "collections"),
		logs:   filepath.Join(dir, "logs"),
		config: filepath.Join(dir, "automatest.yaml"),
	}
	writeFile(t, filepath.Join(ws.root, "shop", "requests", "users.json"), "{}")
	writeFile(t, filepath.Join(ws.root, "shop", "enviroment", "dev.json"), "{}")

	cfg := "collections_root: " + ws.root + "\nlogs_dir: " + ws.logs + "\nrunner: newman\n" + extraConfig
	writeFile(t, ws.config, cfg)
	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeFakeRunner writes a shell script that prints transcript, writes
// report (when non-empty) and exits with exitCode.
func writeFakeRunner(t *testing.T, transcript, report, exitCode string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script runner is unix-only")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "transcript.txt"), transcript)
	write := ""
	if report != "" {
		writeFile(t, filepath.Join(dir, "report.json"), report)
		write = `cp "` + filepath.Join(dir, "report.json") + `" "$out"`
	}
	script := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--reporter-json-export" ]; then out="$2"; fi
  shift
done
cat "` + filepath.Join(dir, "transcript.txt") + `"
` + write + `
exit ` + exitCode + `
`
	bin := filepath.Join(dir, "fake-newman")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin
}

// useFakeRunner makes every runner execute a fake runner script.
func useFakeRunner(t *testing.T, transcript, report, exitCode string) {
	t.Helper()
	bin := writeFakeRunner(t, transcript, report, exitCode)

	savedRunner, savedNow := newRunner, timeNow
	newRunner = func(kind runner.Kind) *runner.Runner {
		r := runner.New(kind)
		r.SetBinary(bin)
		return r
	}
	timeNow = func() time.Time { return fixedStart }
	t.Cleanup(func() {
		newRunner, timeNow = savedRunner, savedNow
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "automatest "+Version+"\n", stdout)
}

func TestRun_AllPassing(t *testing.T) {
	ws := newWorkspace(t, "")
	useFakeRunner(t, passingTranscript, passingReport, "0")

	stdout, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-mail")
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "─── [shop/dev] users.json ───")
	assert.Contains(t, stdout, "[shop/dev] users.json ok: requests 1 (failed 0), tests 1 (failed 0)")
	assert.Contains(t, stdout, "# Execution report (newman)")
	assert.Contains(t, stdout, "All 1 collections passed.")

	runDir := filepath.Join(ws.logs, "2026-10-18_09-30-00", "shop", "dev", "users")
	assert.FileExists(t, filepath.Join(runDir, runner.ReportFileName))
	assert.FileExists(t, filepath.Join(runDir, runner.TranscriptFileName))
	assert.FileExists(t, filepath.Join(ws.logs, "history.db"))
}

func TestRun_FailingCollectionExitsWithRuntimeError(t *testing.T) {
	ws := newWorkspace(t, "")
	useFakeRunner(t, failingTranscript, "", "1")

	_, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--project", "shop", "--no-mail", "--no-history")
	require.Error(t, err)
	assert.Equal(t, errors.ExitRuntimeError, errors.GetExitCode(err))
	assert.Contains(t, stderr, "[shop/dev] users.json failed: requests 1 (failed 0), tests 1 (failed 1)")
	assert.NoFileExists(t, filepath.Join(ws.logs, "history.db"))
}

func TestRun_FlagConflicts(t *testing.T) {
	ws := newWorkspace(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"all and project", []string{"run", "--all", "--project", "shop"}},
		{"env without project", []string{"run", "--env", "dev"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, nil, append([]string{"-c", ws.config}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
		})
	}
}

func TestRun_UnknownProject(t *testing.T) {
	ws := newWorkspace(t, "")
	useFakeRunner(t, passingTranscript, passingReport, "0")

	_, _, err := executeCommand(t, nil, "-c", ws.config, "run", "--project", "billing", "--no-mail")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestRun_NothingToRun(t *testing.T) {
	ws := newWorkspace(t, "")
	require.NoError(t, os.RemoveAll(filepath.Join(ws.root, "shop")))
	useFakeRunner(t, passingTranscript, passingReport, "0")

	stdout, _, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-mail")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Nothing to run.")
}

func TestRun_InteractiveSelection(t *testing.T) {
	ws := newWorkspace(t, "")
	writeFile(t, filepath.Join(ws.root, "shop", "enviroment", "prod.json"), "{}")
	useFakeRunner(t, passingTranscript, passingReport, "0")

	answers := []int{modeProjectEnv, 0, 1}
	var titles []string
	saved := selectOption
	selectOption = func(_ io.Reader, _ io.Writer, title string, options []string) (int, error) {
		titles = append(titles, title)
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	t.Cleanup(func() { selectOption = saved })

	stdout, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--no-mail", "--no-history")
	require.NoError(t, err, stderr)
	assert.Len(t, titles, 3)
	assert.Contains(t, stdout, "[shop/prod] users.json ok")
	assert.NotContains(t, stdout, "[shop/dev]")
}

func TestRun_SendsMail(t *testing.T) {
	ws := newWorkspace(t, `smtp:
  host: smtp.example.com
  user: bot@example.com
  password: secret
mail:
  recipients: [qa@example.com, dev@example.com]
`)
	useFakeRunner(t, passingTranscript, passingReport, "0")

	var gotCfg mail.Config
	var gotReport mail.Report
	saved := sendReport
	sendReport = func(_ context.Context, cfg mail.Config, r mail.Report) error {
		gotCfg, gotReport = cfg, r
		return nil
	}
	t.Cleanup(func() { sendReport = saved })

	stdout, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-history")
	require.NoError(t, err, stderr)

	assert.Equal(t, 465, gotCfg.Port)
	assert.Equal(t, "bot@example.com", gotCfg.From)
	assert.Equal(t, []string{"qa@example.com", "dev@example.com"}, gotCfg.Recipients)
	assert.Contains(t, gotReport.Text, "# Execution report (newman)")
	assert.Contains(t, gotReport.HTML, "<h1>")
	assert.Len(t, gotReport.Attachments, 2)
	assert.Contains(t, stdout, "Report email sent to 2 recipient(s).")
}

func TestRun_IncompleteMailConfigOnlyWarns(t *testing.T) {
	ws := newWorkspace(t, "")
	useFakeRunner(t, passingTranscript, passingReport, "0")

	called := false
	saved := sendReport
	sendReport = func(context.Context, mail.Config, mail.Report) error {
		called = true
		return nil
	}
	t.Cleanup(func() { sendReport = saved })

	_, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-history")
	require.NoError(t, err)
	assert.False(t, called)
	assert.Contains(t, stderr, "report email skipped: smtp.host")
}

func TestRun_RunnerPathFlag(t *testing.T) {
	ws := newWorkspace(t, "")
	bin := writeFakeRunner(t, passingTranscript, passingReport, "0")

	savedNow := timeNow
	timeNow = func() time.Time { return fixedStart }
	t.Cleanup(func() { timeNow = savedNow })

	stdout, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-mail", "--no-history", "--runner-path", bin)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "=== Report ===")
	assert.Contains(t, stdout, "[shop/dev] users.json ok")
}

func TestRun_InvalidSettingIsValidationError(t *testing.T) {
	ws := newWorkspace(t, "")
	t.Setenv("SMTP_PORT", "70000")

	_, _, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-mail")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
	assert.Contains(t, err.Error(), "smtp.port")
}

func TestHistory_ListAndShow(t *testing.T) {
	ws := newWorkspace(t, "")
	useFakeRunner(t, passingTranscript, passingReport, "0")

	_, stderr, err := executeCommand(t, nil, "-c", ws.config, "run", "--all", "--no-mail")
	require.NoError(t, err, stderr)

	stdout, _, err := executeCommand(t, nil, "-c", ws.config, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ID")
	assert.Contains(t, stdout, "2026-10-18_09-30-00")
	assert.Contains(t, stdout, "OK")

	stdout, _, err = executeCommand(t, nil, "-c", ws.config, "history", "2026-10-18_09-30-00")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Execution report (newman)")
	assert.Contains(t, stdout, "## shop")

	_, _, err = executeCommand(t, nil, "-c", ws.config, "history", "1999-01-01_00-00-00")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
}

func TestHistory_Empty(t *testing.T) {
	ws := newWorkspace(t, "")

	stdout, _, err := executeCommand(t, nil, "-c", ws.config, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded yet.")
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "run.json")
	transcriptPath := filepath.Join(dir, "cli.log.txt")
	writeFile(t, reportPath, passingReport)
	writeFile(t, transcriptPath, passingTranscript)

	t.Run("report and transcript", func(t *testing.T) {
		stdout, _, err := executeCommand(t, nil, "summarize", reportPath, transcriptPath)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Status: OK")
		assert.Contains(t, stdout, "Requests: 1 (failed 0)")
	})

	t.Run("report from stdin as json", func(t *testing.T) {
		stdout, _, err := executeCommand(t, strings.NewReader(passingReport), "summarize", "-", "--json")
		require.NoError(t, err)

		var s result.Summary
		require.NoError(t, json.Unmarshal([]byte(stdout), &s))
		assert.True(t, s.OK)
		require.Len(t, s.Items, 1)
		assert.Equal(t, "Get user", s.Items[0].Name)
	})

	t.Run("missing report falls back to transcript", func(t *testing.T) {
		stdout, stderr, err := executeCommand(t, nil, "summarize", filepath.Join(dir, "absent.json"), transcriptPath, "--details")
		require.NoError(t, err)
		assert.Contains(t, stderr, "not found")
		assert.Contains(t, stdout, "Get user [200]")
	})

	t.Run("nothing counted", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.txt")
		writeFile(t, empty, "")
		_, _, err := executeCommand(t, nil, "summarize", filepath.Join(dir, "absent.json"), empty)
		require.Error(t, err)
		assert.Equal(t, errors.ExitRuntimeError, errors.GetExitCode(err))
		assert.Contains(t, err.Error(), "no requests counted")
	})

	t.Run("registered runner alias", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "summarize", reportPath, transcriptPath, "--runner", "postman-cli")
		require.NoError(t, err)
	})

	t.Run("unknown runner", func(t *testing.T) {
		_, _, err := executeCommand(t, nil, "summarize", reportPath, "--runner", "jest")
		require.Error(t, err)
		assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
		assert.Contains(t, err.Error(), "newman, postman, postman-cli")
	})
}
