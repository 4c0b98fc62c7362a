package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// writeEnvelope writes {"statusCode","status","data"}. A nil data writes null.
func writeEnvelope(w http.ResponseWriter, code int, data func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := "success"
	if code >= http.StatusBadRequest {
		status = "error"
	}

	e.ObjStart()
	e.FieldStart("statusCode")
	e.Int(code)
	e.FieldStart("status")
	e.Str(status)
	e.FieldStart("data")
	if data == nil {
		e.Null()
	} else {
		data(e)
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// writeErrors writes a 401 envelope with data {"errors": msgs}.
func writeErrors(w http.ResponseWriter, msgs ...string) {
	writeEnvelope(w, http.StatusUnauthorized, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("errors")
		e.ArrStart()
		for _, m := range msgs {
			e.Str(m)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// writeAuthError writes data {"err": msg}.
func writeAuthError(w http.ResponseWriter, code int, msg string) {
	writeEnvelope(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("err")
		e.Str(msg)
		e.ObjEnd()
	})
}
