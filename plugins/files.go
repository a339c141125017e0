package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

// maxReadBytes caps what "read file" prints.
const maxReadBytes = 64 << 10

// Files returns file management commands. Only reading and listing are
// marked safe.
func Files() loader.Unit {
	return loader.Static("files",
		command.Definition{
			Pattern:     "create file {path}",
			Description: "Create an empty file",
			Handler:     handleCreate,
		},
		command.Definition{
			Pattern:     "copy {source} to {destination}",
			Description: "Copy a file",
			Handler:     handleCopy,
		},
		command.Definition{
			Pattern:     "move {source} to {destination}",
			Description: "Move or rename a file",
			Handler:     handleMove,
		},
		command.Definition{
			Pattern:     "delete file {path}",
			Description: "Delete a file",
			Handler:     handleDelete,
		},
		command.Definition{
			Pattern:     "read file {path}",
			Description: "Print the contents of a text file",
			Safe:        true,
			Handler:     handleRead,
		},
		command.Definition{
			Pattern:     "list files in {dir}",
			Description: "List the entries of a directory",
			Safe:        true,
			Handler:     handleList,
		},
	)
}

func pathArg(args command.Args, name string) (string, error) {
	p := expandPath(args.Get(name))
	if p == "" {
		return "", fmt.Errorf("no %s given", name)
	}
	return p, nil
}

func handleCreate(_ context.Context, args command.Args) (string, error) {
	path, err := pathArg(args, "path")
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return "📄 Created " + path, nil
}

func handleCopy(_ context.Context, args command.Args) (string, error) {
	src, dst, err := sourceAndDestination(args)
	if err != nil {
		return "", err
	}
	n, err := copyFile(src, dst)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📋 Copied %s to %s (%d bytes)", src, dst, n), nil
}

func handleMove(_ context.Context, args command.Args) (string, error) {
	src, dst, err := sourceAndDestination(args)
	if err != nil {
		return "", err
	}
	if err := os.Rename(src, dst); err != nil {
		return "", err
	}
	return fmt.Sprintf("🚚 Moved %s to %s", src, dst), nil
}

func handleDelete(_ context.Context, args command.Args) (string, error) {
	path, err := pathArg(args, "path")
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if err := os.Remove(path); err != nil {
		return "", err
	}
	return "🗑️ Deleted " + path, nil
}

func handleRead(_ context.Context, args command.Args) (string, error) {
	path, err := pathArg(args, "path")
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, maxReadBytes+1))
	if err != nil {
		return "", err
	}
	truncated := len(buf) > maxReadBytes
	if truncated {
		buf = buf[:maxReadBytes]
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("%s is not a text file", path)
	}

	out := string(buf)
	if truncated {
		out += "\n… (truncated)"
	}
	return out, nil
}

func handleList(_ context.Context, args command.Args) (string, error) {
	dir, err := pathArg(args, "dir")
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "📂 " + dir + " is empty", nil
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
		if e.IsDir() {
			names[i] += "/"
		}
	}
	return formatList("📂 "+dir+":", names), nil
}

func sourceAndDestination(args command.Args) (string, string, error) {
	src, err := pathArg(args, "source")
	if err != nil {
		return "", "", err
	}
	dst, err := pathArg(args, "destination")
	if err != nil {
		return "", "", err
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	if src == dst {
		return "", "", errors.New("source and destination are the same file")
	}
	return src, dst, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
