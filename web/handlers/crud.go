package handlers

import (
	"context"
	"net/http"
)

// JSON serves op with its input decoded from the JSON body. An empty body
// is the zero input: an empty search matches everything and an empty create
// fails validation.
func JSON[In, Out any](op func(context.Context, In) (Out, error), status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeJSON(w, r, &in); err != nil {
			respondError(w, r, err)
			return
		}
		serve(w, r, op, in, status)
	}
}

// Query serves op with its input decoded from the query string.
func Query[In, Out any](op func(context.Context, In) (Out, error), status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeQuery(r.URL.Query(), &in); err != nil {
			respondError(w, r, err)
			return
		}
		serve(w, r, op, in, status)
	}
}

func serve[In, Out any](w http.ResponseWriter, r *http.Request, op func(context.Context, In) (Out, error), in In, status int) {
	out, err := op(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, status, out)
}
