package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseSection validates raw model output against the stage's shape and
// converts it into a Section.
func ParseSection(stage Stage, raw string) (Section, error) {
	if !stage.Valid() {
		return Section{}, fmt.Errorf("unknown stage %d", int(stage))
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return Section{}, newError(ErrEmptyResponse, nil)
	}

	switch stage.Shape() {
	case ShapeText:
		return TextSection(stage, raw), nil
	case ShapeList:
		arr, err := structuredArray(text)
		if err != nil {
			return Section{}, err
		}
		items := make([]string, 0, len(arr))
		for i, v := range arr {
			if v.Type != gjson.String {
				return Section{}, newError(ErrMalformedResult, fmt.Errorf("item %d is %s, want string", i, v.Type))
			}
			items = append(items, v.String())
		}
		return ListSection(stage, items), nil
	case ShapeModules:
		arr, err := structuredArray(text)
		if err != nil {
			return Section{}, err
		}
		mods := make([]ProjectModule, 0, len(arr))
		for i, v := range arr {
			if !v.IsObject() {
				return Section{}, newError(ErrMalformedResult, fmt.Errorf("module %d is not an object", i))
			}
			title, desc := v.Get("title"), v.Get("description")
			if title.Type != gjson.String || desc.Type != gjson.String {
				return Section{}, newError(ErrMalformedResult, fmt.Errorf("module %d needs string title and description", i))
			}
			mods = append(mods, ProjectModule{Title: title.String(), Description: desc.String()})
		}
		return ModulesSection(mods), nil
	}
	return Section{}, fmt.Errorf("unsupported shape %s", stage.Shape())
}

// structuredArray accepts a bare JSON array or an object wrapping it under
// "items" (providers whose schemas need an object root). Code fences around
// the JSON are tolerated.
func structuredArray(text string) ([]gjson.Result, error) {
	text = stripFence(text)
	if !gjson.Valid(text) {
		return nil, newError(ErrMalformedResult, errors.New("response is not valid JSON"))
	}
	res := gjson.Parse(text)
	if res.IsObject() {
		res = res.Get("items")
	}
	if !res.IsArray() {
		return nil, newError(ErrMalformedResult, errors.New("response is not a JSON array"))
	}
	arr := res.Array()
	if len(arr) == 0 {
		return nil, newError(ErrEmptyResponse, errors.New("empty JSON array"))
	}
	return arr, nil
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
