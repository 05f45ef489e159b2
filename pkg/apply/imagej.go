package apply

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
)

// MacroFilename is the macro ImageJ is asked to run, inside OutDir.
const MacroFilename = "macro.ijm"

// The macro translates each copied file in place. Its processFile
// lines come from the jobs.
var macroTemplate = template.Must(template.New("macro").Funcs(template.FuncMap{
	"ijString": ijEscaper.Replace,
}).Parse(`setBatchMode(true);

function processFile(path, dx, dy) {
	open(path);
	run("Translate...", "x=" + dx + " y=" + dy + " interpolation=None");
	saveAs("Tiff", path);
	close();
}

{{range .}}processFile("{{.Path | ijString}}", {{.Offset.DX}}, {{.Offset.DY}});
{{end}}
setBatchMode(false);
run("Quit");
`))

var ijEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ImageJ copies the files into OutDir, writes a macro that shifts the
// copies, and runs ImageJ on it. With no Path, the macro is written
// but not run.
type ImageJ struct {
	OutDir string
	Path   string // ImageJ executable
	Log    *zerolog.Logger

	// Command builds the process to run; exec.CommandContext if nil.
	Command func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

func (ij *ImageJ) MacroPath() string { return filepath.Join(ij.OutDir, MacroFilename) }

func (ij *ImageJ) Apply(ctx context.Context, jobs []Job) error {
	copies := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		dst := filepath.Join(ij.OutDir, filepath.Base(job.Path))
		if err := copyFile(job.Path, dst); err != nil {
			return err
		}
		copies = append(copies, Job{Path: dst, Offset: job.Offset})
	}

	if err := ij.WriteMacro(copies); err != nil {
		return err
	}

	if ij.Path == "" {
		ij.logger().Info().Str("macro", ij.MacroPath()).Msg("no ImageJ configured; macro written but not run")
		return nil
	}
	return ij.run(ctx)
}

// WriteMacro writes the macro for jobs, whose paths should already
// point at the files to modify.
func (ij *ImageJ) WriteMacro(jobs []Job) error {
	f, err := os.Create(ij.MacroPath())
	if err != nil {
		return fmt.Errorf("ImageJ macro, open+w '%s': %w", ij.MacroPath(), err)
	}
	if err := RenderMacro(f, jobs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderMacro writes the macro text for jobs to w.
func RenderMacro(w io.Writer, jobs []Job) error {
	if err := macroTemplate.Execute(w, jobs); err != nil {
		return fmt.Errorf("ImageJ macro: %w", err)
	}
	return nil
}

func (ij *ImageJ) run(ctx context.Context) error {
	command := ij.Command
	if command == nil {
		command = exec.CommandContext
	}

	cmd := command(ctx, ij.Path, "-macro", ij.MacroPath())
	cmd.Dir = ij.OutDir

	ij.logger().Info().Str("imagej", ij.Path).Str("macro", ij.MacroPath()).Msg("running ImageJ")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ImageJ %s: %w (output: %s)", ij.Path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (ij *ImageJ) logger() *zerolog.Logger {
	if ij.Log == nil {
		l := zerolog.Nop()
		return &l
	}
	return ij.Log
}

func copyFile(src, dst string) error {
	if same, err := samePath(src, dst); err != nil {
		return err
	} else if same {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
