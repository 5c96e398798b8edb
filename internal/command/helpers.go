package command

import (
	"strconv"

	"github.com/adred-codev/kvredis/internal/store"
)

// writeStoreErr translates a store sentinel error into its RESP error
// reply. Callers pass the original error; nil is a no-op and returns
// false so the caller can early-return only when there was one.
func writeStoreErr(ctx *Context, err error) bool {
	if err == nil {
		return false
	}
	ctx.Out.Error(err.Error())
	return true
}

func parseInt(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	return n, err == nil
}

func parseIntArg(ctx *Context, b []byte) (int64, bool) {
	n, ok := parseInt(b)
	if !ok {
		ctx.Out.Error(store.ErrNotInteger.Error())
	}
	return n, ok
}

func parseFloatArg(ctx *Context, b []byte) (float64, bool) {
	f, ok := parseFloat(b)
	if !ok {
		ctx.Out.Error(store.ErrNotFloat.Error())
	}
	return f, ok
}

func parseFloat(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	return f, err == nil
}
