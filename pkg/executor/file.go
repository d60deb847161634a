package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillgate/skillgate/pkg/domain"
)

// resolvePath anchors relative paths at the configured working directory.
func (e *Executor) resolvePath(path string) string {
	if filepath.IsAbs(path) || e.workDir == "" {
		return path
	}
	return filepath.Join(e.workDir, path)
}

// classifyFSError maps OS errors onto the engine's failure taxonomy.
func classifyFSError(op, path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s %s: %w", op, path, domain.ErrPathNotFound)
	case os.IsPermission(err):
		return fmt.Errorf("%s %s: %w", op, path, domain.ErrPermissionDenied)
	default:
		return fmt.Errorf("%s %s: %w: %v", op, path, domain.ErrIO, err)
	}
}

func (e *Executor) readFile(ctx context.Context, params map[string]any) (any, error) {
	path, err := requiredPath(params)
	if err != nil {
		return nil, err
	}
	path = e.resolvePath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSError("read", path, err)
	}
	return string(data), nil
}

func (e *Executor) writeFile(ctx context.Context, params map[string]any) (any, error) {
	path, err := requiredPath(params)
	if err != nil {
		return nil, err
	}
	path = e.resolvePath(path)

	content, err := stringParam(params, "content")
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, classifyFSError("write", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, classifyFSError("write", path, err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
}

func (e *Executor) deleteFile(ctx context.Context, params map[string]any) (any, error) {
	path, err := requiredPath(params)
	if err != nil {
		return nil, err
	}
	path = e.resolvePath(path)

	if err := os.Remove(path); err != nil {
		return nil, classifyFSError("delete", path, err)
	}
	return fmt.Sprintf("deleted %s", path), nil
}

func requiredPath(params map[string]any) (string, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("parameter path: required")
	}
	return path, nil
}
