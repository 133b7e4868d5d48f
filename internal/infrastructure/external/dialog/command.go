// Package dialog opens native file and folder dialogs by running the
// platform's dialog helper as a child process.
package dialog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/picker"
)

// ErrNoHelper is returned when no dialog helper is installed
var ErrNoHelper = errors.New("no native dialog helper available")

// Runner executes a command and returns its stdout. Exit status 1 from the
// helpers means the user cancelled.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, int, error)

// CommandDialog implements picker.Dialog with zenity or kdialog on linux,
// osascript on darwin and PowerShell on windows.
type CommandDialog struct {
	goos     string
	run      Runner
	lookPath func(string) (string, error)
	logger   *zap.Logger
}

// NewCommandDialog creates a dialog for the current OS
func NewCommandDialog(logger *zap.Logger) *CommandDialog {
	return &CommandDialog{
		goos:     runtime.GOOS,
		run:      execRunner,
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// Open shows the dialog and returns the selected path
func (d *CommandDialog) Open(ctx context.Context, opts picker.DialogOptions) (string, bool, error) {
	name, args, err := d.Command(opts)
	if err != nil {
		return "", false, err
	}

	d.logger.Debug("Opening native dialog", zap.String("helper", name), zap.Strings("args", args))

	out, code, err := d.run(ctx, name, args...)
	if err != nil {
		return "", false, fmt.Errorf("run %s: %w", name, err)
	}
	if code == 1 {
		return "", false, nil
	}
	if code != 0 {
		return "", false, fmt.Errorf("%s exited with status %d", name, code)
	}

	path := strings.TrimSpace(string(out))
	return path, path != "", nil
}

// Command builds the helper invocation for the options on this OS
func (d *CommandDialog) Command(opts picker.DialogOptions) (string, []string, error) {
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return d.unixCommand(opts)
	case "darwin":
		if opts.AllowsFiles() && opts.AllowsDirectories() {
			return "osascript", []string{"-l", "JavaScript", "-e", openPanelScript(opts)}, nil
		}
		return "osascript", []string{"-e", appleScript(opts)}, nil
	case "windows":
		return "powershell", []string{"-NoProfile", "-STA", "-Command", powerShellScript(opts)}, nil
	default:
		return "", nil, fmt.Errorf("%w on %s", ErrNoHelper, d.goos)
	}
}

func (d *CommandDialog) unixCommand(opts picker.DialogOptions) (string, []string, error) {
	if _, err := d.lookPath("zenity"); err == nil {
		args := []string{"--file-selection", "--title=" + opts.Title}
		if opts.AllowsDirectories() && !opts.AllowsFiles() {
			args = append(args, "--directory")
		}
		for _, f := range opts.Filters {
			patterns := make([]string, len(f.Extensions))
			for i, ext := range f.Extensions {
				patterns[i] = "*." + ext
			}
			args = append(args, fmt.Sprintf("--file-filter=%s | %s", f.Name, strings.Join(patterns, " ")))
		}
		return "zenity", args, nil
	}

	if _, err := d.lookPath("kdialog"); err == nil {
		if opts.AllowsDirectories() && !opts.AllowsFiles() {
			return "kdialog", []string{"--title", opts.Title, "--getexistingdirectory", "."}, nil
		}
		filter := ""
		for _, f := range opts.Filters {
			for _, ext := range f.Extensions {
				filter += "*." + ext + " "
			}
		}
		args := []string{"--title", opts.Title, "--getopenfilename", "."}
		if filter != "" {
			args = append(args, strings.TrimSpace(filter))
		}
		return "kdialog", args, nil
	}

	return "", nil, ErrNoHelper
}

func appleScript(opts picker.DialogOptions) string {
	if opts.AllowsDirectories() && !opts.AllowsFiles() {
		return fmt.Sprintf(`POSIX path of (choose folder with prompt %q)`, opts.Title)
	}
	var types []string
	for _, f := range opts.Filters {
		for _, ext := range f.Extensions {
			types = append(types, fmt.Sprintf("%q", ext))
		}
	}
	if len(types) > 0 {
		return fmt.Sprintf(`POSIX path of (choose file with prompt %q of type {%s})`, opts.Title, strings.Join(types, ", "))
	}
	return fmt.Sprintf(`POSIX path of (choose file with prompt %q)`, opts.Title)
}

// openPanelScript drives NSOpenPanel through JXA, since "choose file" and
// "choose folder" each accept only one kind of item.
func openPanelScript(opts picker.DialogOptions) string {
	return `ObjC.import('AppKit'); ObjC.import('stdlib'); ` +
		`var p = $.NSOpenPanel.openPanel; ` +
		fmt.Sprintf(`p.message = %q; `, opts.Title) +
		`p.canChooseFiles = true; p.canChooseDirectories = true; p.allowsMultipleSelection = false; ` +
		`if (p.runModal != $.NSModalResponseOK) { $.exit(1) } ` +
		`p.URLs.objectAtIndex(0).path.js`
}

func powerShellScript(opts picker.DialogOptions) string {
	if opts.AllowsDirectories() && !opts.AllowsFiles() {
		return `Add-Type -AssemblyName System.Windows.Forms; $d = New-Object System.Windows.Forms.FolderBrowserDialog; ` +
			`if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath } else { exit 1 }`
	}
	filter := "All files (*.*)|*.*"
	if len(opts.Filters) > 0 {
		f := opts.Filters[0]
		patterns := make([]string, len(f.Extensions))
		for i, ext := range f.Extensions {
			patterns[i] = "*." + ext
		}
		joined := strings.Join(patterns, ";")
		filter = fmt.Sprintf("%s (%s)|%s", f.Name, joined, joined)
	}
	return `Add-Type -AssemblyName System.Windows.Forms; $d = New-Object System.Windows.Forms.OpenFileDialog; ` +
		fmt.Sprintf(`$d.Filter = '%s'; `, filter) +
		`if ($d.ShowDialog() -eq 'OK') { $d.FileName } else { exit 1 }`
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return nil, -1, err
	}
	return stdout.Bytes(), 0, nil
}
