package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/fiscal-extract/internal/common"
)

// decodeRequest maps a Struct onto a tagged Go value through JSON.
func decodeRequest(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return common.NewAppError("INVALID_INPUT", "unreadable request", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if err := json.Unmarshal(b, v); err != nil {
		return common.NewAppError("INVALID_INPUT", "malformed request", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
