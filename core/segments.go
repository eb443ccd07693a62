package core

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SessionSegments 返回会话日志的全部分段：按时间排序的轮转备份（session-<时间>.log），
// 最后是当前文件。不存在的文件不会出现在结果中。
func SessionSegments(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	ext := filepath.Ext(path)
	prefix := strings.TrimSuffix(path, ext) + "-"

	backups, err := filepath.Glob(globEscape(prefix) + "*" + globEscape(ext))
	if err != nil {
		return nil, err
	}
	// 备份名中的时间戳格式固定，字典序即时间序
	sort.Strings(backups)

	if _, err := os.Stat(path); err == nil {
		backups = append(backups, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return backups, err
	}
	return backups, nil
}

// removeSessionSegments 删除上一次运行留下的会话文件及其轮转备份
func removeSessionSegments(path string) error {
	segments, err := SessionSegments(path)
	if err != nil {
		return err
	}
	for _, p := range segments {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
