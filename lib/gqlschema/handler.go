package gqlschema

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Handler serves queries against schema. Query errors are reported in
// the response body with status 200; only an unreadable body is a 400.
func Handler(schema graphql.Schema, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, &graphql.Result{
				Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError("invalid request body")},
			})
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		if result.HasErrors() {
			logger.DebugContext(r.Context(), "graphql query failed", "errors", len(result.Errors))
		}
		render.JSON(w, r, result)
	}
}
