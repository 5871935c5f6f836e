package appsync

import (
	"context"
	"encoding/json"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

// The mirror endpoint exposes a single pass-through field that forwards
// an operation name plus a JSON payload to the graph database resolver.
const mirrorMutation = `
mutation MirrorOperation($fieldName: String!, $input: AWSJSON!) {
  neo4jOperation(fieldName: $fieldName, input: $input)
}`

// Mirror projects synced records into the secondary graph database. It
// accepts the same operation names as the data service. Writes are
// fire-and-forget from the sync engine's point of view; a mirror
// failure never blocks a pass.
type Mirror struct {
	gql    *graphql.Client
	apiKey string
	logger *zap.Logger
}

// NewMirror creates a graph mirror client for the given endpoint
func NewMirror(endpoint, apiKey string, logger *zap.Logger) *Mirror {
	return &Mirror{
		gql:    graphql.NewClient(endpoint),
		apiKey: apiKey,
		logger: logger,
	}
}

// Operation forwards one operation with its record payload
func (m *Mirror) Operation(ctx context.Context, fieldName string, payload interface{}) error {
	input, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewSerializationError("encode mirror payload", err)
	}

	req := graphql.NewRequest(mirrorMutation)
	req.Var("fieldName", fieldName)
	req.Var("input", string(input))
	if m.apiKey != "" {
		req.Header.Set("x-api-key", m.apiKey)
	}

	var resp struct {
		Neo4jOperation string `json:"neo4jOperation"`
	}
	if err := m.gql.Run(ctx, req, &resp); err != nil {
		return apperrors.NewRemoteError("graph-mirror", err)
	}

	m.logger.Debug("Mirror operation applied",
		zap.String("fieldName", fieldName),
	)
	return nil
}
