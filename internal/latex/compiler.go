package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/observability"
)

// JobName is the base name of every artifact the compiler produces.
const JobName = "formula"

// ErrNoPDF is returned when the compiler exits cleanly without producing a PDF.
var ErrNoPDF = errors.New("compiler produced no PDF")

// CompileError describes a failed compiler run.
type CompileError struct {
	ExitCode int
	Command  []string
	LogPath  string // empty when the log was removed or never written
	Err      error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("error %d executing command: %s", e.ExitCode, strings.Join(e.Command, " "))
	if e.LogPath != "" {
		msg += fmt.Sprintf(" (see %s)", e.LogPath)
	}
	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// CompilerConfig holds compiler invocation settings.
type CompilerConfig struct {
	Binary           string
	Timeout          time.Duration
	KeepLogOnFailure bool
}

// Compiler runs an external LaTeX compiler in nonstop mode.
type Compiler struct {
	cfg    CompilerConfig
	logger *observability.Logger
}

// NewCompiler creates a compiler; an empty binary means pdflatex.
func NewCompiler(cfg CompilerConfig, logger *observability.Logger) *Compiler {
	if cfg.Binary == "" {
		cfg.Binary = "pdflatex"
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Compiler{cfg: cfg, logger: logger.WithOperation("compile")}
}

// artifact returns the path of the job artifact with the given extension.
func artifact(jobDir, ext string) string {
	return filepath.Join(jobDir, JobName+ext)
}

// Compile writes doc to <jobDir>/formula.tex and compiles it there.
// On success only formula.pdf remains. On failure the PDF, aux and tex files are
// removed and the log is kept if configured.
func (c *Compiler) Compile(ctx context.Context, doc string, jobDir string) (string, error) {
	texPath := artifact(jobDir, ".tex")
	if err := os.WriteFile(texPath, []byte(doc), 0o644); err != nil {
		return "", domain.IOError("write document", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	args := []string{"-interaction", "nonstopmode", JobName + ".tex"}
	command := append([]string{c.cfg.Binary}, args...)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...)
	cmd.Dir = jobDir
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	c.logger.Debug().Strs("command", command).Str("dir", jobDir).Msg("running compiler")
	runErr := cmd.Run()
	c.logger.Debug().Dur("elapsed", time.Since(start)).Str("output", tail(output.String(), 2000)).Msg("compiler finished")

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = fmt.Errorf("%w: %v", ctxErr, runErr)
		}

		logPath := c.cleanupFailure(jobDir)
		c.logger.Error().Int("exit_code", exitCode).Str("log", logPath).Msg("compilation failed")
		return "", &CompileError{
			ExitCode: exitCode,
			Command:  command,
			LogPath:  logPath,
			Err:      runErr,
		}
	}

	pdfPath := artifact(jobDir, ".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		logPath := c.cleanupFailure(jobDir)
		return "", &CompileError{ExitCode: 0, Command: command, LogPath: logPath, Err: ErrNoPDF}
	}

	if err := removeAll(texPath, artifact(jobDir, ".log"), artifact(jobDir, ".aux")); err != nil {
		return "", domain.IOError("remove compiler artifacts", err)
	}

	return pdfPath, nil
}

// cleanupFailure removes the partial outputs and returns the kept log path, if any.
func (c *Compiler) cleanupFailure(jobDir string) string {
	logPath := artifact(jobDir, ".log")
	remove := []string{artifact(jobDir, ".pdf"), artifact(jobDir, ".aux"), artifact(jobDir, ".tex")}
	if !c.cfg.KeepLogOnFailure {
		remove = append(remove, logPath)
	}
	if err := removeAll(remove...); err != nil {
		c.logger.Warn().Err(err).Msg("cleanup after failed compilation")
	}

	if !c.cfg.KeepLogOnFailure {
		return ""
	}
	if _, err := os.Stat(logPath); err != nil {
		return ""
	}
	return logPath
}

// removeAll deletes files, ignoring ones that do not exist.
func removeAll(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
