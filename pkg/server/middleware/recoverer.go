package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Recoverer turns a handler panic into a call to onPanic. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Recoverer(onPanic func(w http.ResponseWriter, req *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				zerolog.Ctx(req.Context()).Error().
					Interface("panic", rvr).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				onPanic(w, req, fmt.Errorf("panic: %v", rvr))
			}()

			next.ServeHTTP(w, req)
		})
	}
}
