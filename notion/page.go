package notion

import (
	"fmt"
	"strings"
	"time"

	"goc-notion-sync/models"

	"github.com/jomei/notionapi"
)

const untitled = "Untitled"

// toPage notionapi.Page를 models.Page로 변환합니다
func toPage(page notionapi.Page) models.Page {
	return models.Page{
		ID:             string(page.ID),
		Title:          getPageTitle(page),
		URL:            getPageURL(page),
		CreatedTime:    page.CreatedTime,
		LastEditedTime: page.LastEditedTime,
		Archived:       page.Archived,
		Properties:     flattenProperties(page.Properties),
	}
}

// getPageTitle 페이지에서 제목을 추출합니다 (속성 이름과 상관없이 title 타입 속성)
func getPageTitle(page notionapi.Page) string {
	for _, name := range []string{"title", "Name"} {
		if title, ok := page.Properties[name].(*notionapi.TitleProperty); ok {
			return extractRichText(title.Title)
		}
	}
	for _, prop := range page.Properties {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return extractRichText(title.Title)
		}
	}
	return untitled
}

// getPageURL 페이지 URL을 반환합니다. API 응답에 없으면 ID로 만듭니다
func getPageURL(page notionapi.Page) string {
	if page.URL != "" {
		return page.URL
	}
	return fmt.Sprintf("https://www.notion.so/%s", strings.ReplaceAll(string(page.ID), "-", ""))
}

// flattenProperties 페이지 속성을 타입별로 단순한 값으로 펼칩니다
func flattenProperties(props notionapi.Properties) map[string]any {
	out := make(map[string]any, len(props))
	for name, prop := range props {
		out[name] = propertyValue(prop)
	}
	return out
}

func propertyValue(prop notionapi.Property) any {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return extractRichText(p.Title)
	case *notionapi.RichTextProperty:
		return extractRichText(p.RichText)
	case *notionapi.NumberProperty:
		return p.Number
	case *notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.MultiSelectProperty:
		names := make([]string, 0, len(p.MultiSelect))
		for _, opt := range p.MultiSelect {
			names = append(names, opt.Name)
		}
		return names
	case *notionapi.DateProperty:
		if p.Date == nil || p.Date.Start == nil {
			return nil
		}
		return time.Time(*p.Date.Start).Format(time.RFC3339)
	case *notionapi.CheckboxProperty:
		return p.Checkbox
	case *notionapi.URLProperty:
		return p.URL
	case *notionapi.EmailProperty:
		return p.Email
	case *notionapi.PhoneNumberProperty:
		return p.PhoneNumber
	case nil:
		return nil
	default:
		return string(prop.GetType())
	}
}
