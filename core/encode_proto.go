package core

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/scenekit/model"
)

// ProtoEncoder writes the document as a binary google.protobuf.Struct with
// the same field names as the JSON encoding.
type ProtoEncoder struct{}

func (ProtoEncoder) Format() string { return FormatProto }

func (ProtoEncoder) Encode(doc *model.Document) ([]byte, error) {
	st, err := DocumentStruct(doc)
	if err != nil {
		return nil, err
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode pb: %w", err)
	}
	return b, nil
}

// DocumentStruct converts doc into a structpb.Struct.
func DocumentStruct(doc *model.Document) (*structpb.Struct, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	st, err := structpb.NewStruct(documentValue(doc))
	if err != nil {
		return nil, fmt.Errorf("encode pb: %w", err)
	}
	return st, nil
}
