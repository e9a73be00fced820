package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document with id",
			doc:     NewDocument(Member{FieldID, String("a1")}, Member{"n", Int(1)}),
			wantErr: nil,
		},
		{
			name:    "valid document without id",
			doc:     NewDocument(Member{"n", Int(1)}),
			wantErr: nil,
		},
		{
			name:    "empty document",
			doc:     NewDocument(),
			wantErr: nil,
		},
		{
			name:    "string etag",
			doc:     NewDocument(Member{FieldETag, String("v1")}),
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "numeric id",
			doc:     NewDocument(Member{FieldID, Int(7)}),
			wantErr: ErrInvalidID,
		},
		{
			name:    "null id",
			doc:     NewDocument(Member{FieldID, Null()}),
			wantErr: ErrInvalidID,
		},
		{
			name:    "empty id",
			doc:     NewDocument(Member{FieldID, String("")}),
			wantErr: ErrInvalidID,
		},
		{
			name:    "id with slash",
			doc:     NewDocument(Member{FieldID, String("a/b")}),
			wantErr: ErrInvalidID,
		},
		{
			name:    "object etag",
			doc:     NewDocument(Member{FieldETag, Object()}),
			wantErr: ErrInvalidETag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error = %v, should wrap ErrInvalidDocument", err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"a", true},
		{"tweet-0001", true},
		{"with space", true},
		{"ünïcödé", true},
		{strings.Repeat("x", MaxIDLength), true},
		{"", false},
		{strings.Repeat("x", MaxIDLength+1), false},
		{"a/b", false},
		{`a\b`, false},
		{"a?b", false},
		{"a#b", false},
	}

	for _, tt := range tests {
		err := ValidateID(tt.id)
		if tt.valid && err != nil {
			t.Errorf("ValidateID(%q) error = %v, want nil", tt.id, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) error = %v, want ErrInvalidID", tt.id, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"docket", "documents", "Tweets_2017"}
	invalid := []string{"", "   ", "a/b", "a#b", "a?b", `a\b`}

	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) error = %v, want nil", name, err)
		}
	}
	for _, name := range invalid {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}
