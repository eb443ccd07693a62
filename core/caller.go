package core

import (
	"path/filepath"
	"runtime"
	"strings"
)

// UnknownContext 无法解析调用来源时使用的标记
const UnknownContext = "Unknown"

// ContextFromPath 返回不带扩展名的文件名，解析失败时返回 "Unknown"
func ContextFromPath(path string) string {
	if path == "" || strings.ContainsRune(path, 0) {
		return UnknownContext
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return UnknownContext
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return UnknownContext
	}
	return name
}

// MemberName 从完整函数名中取出成员名，去掉包路径、接收者和闭包后缀
//
//	github.com/acme/app/store.(*DB).Flush.func1 -> Flush
func MemberName(funcName string) string {
	if funcName == "" {
		return UnknownContext
	}
	if i := strings.LastIndexByte(funcName, '/'); i >= 0 {
		funcName = funcName[i+1:]
	}
	parts := strings.Split(funcName, ".")
	for len(parts) > 1 && isClosureSuffix(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return UnknownContext
	}
	return parts[len(parts)-1]
}

func isClosureSuffix(s string) bool {
	if strings.HasPrefix(s, "func") {
		s = s[len("func"):]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CallerTag 返回 "文件名.成员名"，skip 的含义与 runtime.Caller 相同（0 为 CallerTag 的调用者）
func CallerTag(skip int) string {
	pc, file, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return UnknownContext + "." + UnknownContext
	}
	member := UnknownContext
	if fn := runtime.FuncForPC(pc); fn != nil {
		member = MemberName(fn.Name())
	}
	return ContextFromPath(file) + "." + member
}

// Tag 给消息加上来源前缀
func Tag(origin, msg string) string {
	return origin + ": " + msg
}
