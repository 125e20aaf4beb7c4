package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve), "expected validation errors, got %v", err)
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func TestFieldNamesUseWireTags(t *testing.T) {
	v := New()
	payload := struct {
		ProjectName string `json:"projectName" validate:"required"`
		Note        string `form:"note" validate:"required"`
		Plain       string `validate:"required"`
	}{}

	assert.Equal(t, map[string]string{"projectName": "required", "note": "required", "Plain": "required"},
		fieldErrors(t, v.Validate(&payload)))
}

func TestNotFuture(t *testing.T) {
	v := New()
	type expense struct {
		Date time.Time `json:"expenseDate" validate:"notfuture"`
	}

	assert.NoError(t, v.Validate(&expense{Date: time.Now().Add(-24 * time.Hour)}))
	assert.NoError(t, v.Validate(&expense{Date: time.Now()}))
	assert.Equal(t, map[string]string{"expenseDate": "notfuture"},
		fieldErrors(t, v.Validate(&expense{Date: time.Now().Add(48 * time.Hour)})))
}

func TestClosedValueLists(t *testing.T) {
	v := New()
	type payload struct {
		Type           string `json:"expenseType" validate:"expense_type"`
		Method         string `json:"paymentMethod" validate:"omitempty,payment_method"`
		Specialization string `json:"specialization" validate:"omitempty,specialization"`
	}

	assert.NoError(t, v.Validate(&payload{Type: "material", Method: "bank_transfer", Specialization: "interior"}))
	assert.NoError(t, v.Validate(&payload{Type: "overtime"}))

	errs := fieldErrors(t, v.Validate(&payload{Type: "gift", Method: "crypto", Specialization: "shipyard"}))
	assert.Equal(t, map[string]string{
		"expenseType":    "expense_type",
		"paymentMethod":  "payment_method",
		"specialization": "specialization",
	}, errs)
}

func TestUpperCode(t *testing.T) {
	v := New()
	type payload struct {
		Code string `json:"code" validate:"upper_code"`
	}

	assert.NoError(t, v.Validate(&payload{Code: "KMJ"}))
	assert.NoError(t, v.Validate(&payload{Code: "CUE14"}))
	assert.Error(t, v.Validate(&payload{Code: "kmj"}))
	assert.Error(t, v.Validate(&payload{Code: "K-MJ"}))
}

func TestNullTypesUnwrap(t *testing.T) {
	v := New()
	type payload struct {
		Notes null.String `json:"notes" validate:"omitempty,max=5"`
	}

	assert.NoError(t, v.Validate(&payload{}))
	assert.NoError(t, v.Validate(&payload{Notes: null.StringFrom("ok")}))
	assert.Equal(t, map[string]string{"notes": "max"},
		fieldErrors(t, v.Validate(&payload{Notes: null.StringFrom("too long")})))
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidateFile(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

	cases := []struct {
		name    string
		file    string
		content []byte
		context string
		wantErr string
	}{
		{name: "pdf accepted", file: "izin.pdf", content: pdf, context: "subsidiary_attachment"},
		{name: "extension rejected", file: "run.sh", content: []byte("#!/bin/sh\n"), context: "subsidiary_attachment", wantErr: "extension"},
		{name: "content rejected", file: "fake.pdf", content: []byte("#!/bin/sh\necho hi\n"), context: "subsidiary_attachment", wantErr: "not allowed"},
		{name: "unknown context", file: "izin.pdf", content: pdf, context: "nope", wantErr: "unknown upload context"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fh := fileHeader(t, tc.file, tc.content)
			f, err := fh.Open()
			require.NoError(t, err)
			defer f.Close()

			err = ValidateFile(fh, f, tc.context)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
