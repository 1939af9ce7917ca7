package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrPickCanceled is returned when the user closed the dialog without
// choosing a folder.
var ErrPickCanceled = errors.New("folder selection canceled")

// FolderPicker asks the local user for a dataset folder. The returned path
// is untrusted and still has to be validated by opening it.
type FolderPicker interface {
	PickFolder(ctx context.Context) (string, error)
}

// NativePicker opens the operating system's folder dialog.
type NativePicker struct {
	Title string
}

func NewNativePicker() *NativePicker {
	return &NativePicker{Title: "Select dataset folder"}
}

// The selected path is printed base64 encoded so non-ASCII folder names
// survive the console code page.
const windowsPickerScript = `
Add-Type -AssemblyName System.Windows.Forms
$f = New-Object System.Windows.Forms.FolderBrowserDialog
$f.ShowNewFolderButton = $true
$f.Description = "%s"
if ($f.ShowDialog() -eq 'OK') {
	Write-Host ([Convert]::ToBase64String([System.Text.Encoding]::UTF8.GetBytes($f.SelectedPath)))
} else {
	Write-Host "CANCEL"
}`

func (p *NativePicker) PickFolder(ctx context.Context) (string, error) {
	switch runtime.GOOS {
	case "windows":
		script := fmt.Sprintf(windowsPickerScript, p.Title)
		out, err := run(ctx, "powershell.exe", "-NoProfile", "-Command", script)
		if err != nil {
			return "", err
		}
		return decodeWindowsSelection(out)
	case "darwin":
		script := fmt.Sprintf(`POSIX path of (choose folder with prompt "%s")`, p.Title)
		out, err := run(ctx, "osascript", "-e", script)
		if err != nil {
			// osascript exits with 1 when the dialog is canceled
			if isExitCode(err, 1) {
				return "", ErrPickCanceled
			}
			return "", err
		}
		return selection(out)
	default:
		out, err := run(ctx, "zenity", "--file-selection", "--directory", "--title="+p.Title)
		if err != nil {
			if isExitCode(err, 1) {
				return "", ErrPickCanceled
			}
			return "", err
		}
		return selection(out)
	}
}

func decodeWindowsSelection(out string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" || out == "CANCEL" {
		return "", ErrPickCanceled
	}

	decoded, err := base64.StdEncoding.DecodeString(out)
	if err != nil {
		return "", fmt.Errorf("failed to decode selected path: %w", err)
	}
	return string(decoded), nil
}

func selection(out string) (string, error) {
	path := strings.TrimSpace(out)
	if path == "" {
		return "", ErrPickCanceled
	}
	return path, nil
}

func run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.String(), nil
}

func isExitCode(err error, code int) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == code
}

// OpenBrowser opens url in the default browser of the desktop session.
func OpenBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	return cmd.Start()
}
