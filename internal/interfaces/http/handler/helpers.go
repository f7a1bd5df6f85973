package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/qclens/backend/internal/domain/listing"
)

func isJSONSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// resolveOptions turns an optional platform query value into resolver options
func resolveOptions(platform string) ([]listing.ResolveOption, error) {
	if platform == "" {
		return nil, nil
	}
	p, err := listing.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}
	return []listing.ResolveOption{listing.WithPlatformHint(p)}, nil
}
