package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devconnector/internal/model"
)

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(model.ExperienceRequest{})
	require.Error(t, err)

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	assert.ElementsMatch(t, model.ValidationErrors{
		{Field: "title", Message: "Title is required"},
		{Field: "company", Message: "Company is required"},
		{Field: "from", Message: "From date is required"},
	}, verrs)
}

func TestStruct_Education(t *testing.T) {
	err := Struct(&model.EducationRequest{School: "MIT", From: "2019-09-01"})

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Equal(t, "degree", verrs[0].Field)
	assert.Equal(t, "Field of study is required", verrs[1].Message)
}

func TestStruct_RegisterMessages(t *testing.T) {
	err := Struct(model.RegisterRequest{Name: "Ann", Email: "not-an-email", Password: "123"})

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, model.ValidationErrors{
		{Field: "email", Message: "Please include a valid email"},
		{Field: "password", Message: "Please enter a password with 6 or more characters"},
	}, verrs)
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(model.ProfileRequest{Status: "Developer"}))
	assert.NoError(t, Struct(model.CreatePostRequest{Text: "hello"}))
}
