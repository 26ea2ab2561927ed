package weekly

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedContent 内容无法解析为周报结构
// ParseContent 返回该错误时仍会给出可用的空内容，调用方只需记录日志
var ErrMalformedContent = errors.New("malformed weekly content")

// maxStringNesting 限制被重复 JSON 编码的字符串的展开层数
const maxStringNesting = 2

// EmptyContent 返回两个分区都为空列表的内容
func EmptyContent() Content {
	return Content{KeyFocus: []Item{}, RegularWork: []Item{}}
}

// ParseContent 将存储中的 content 字段规范化为 Content
//
// raw 可以是 JSON 字符串、[]byte、json.RawMessage、已解码的 map，或者 Content 本身。
// 任何解析失败都不会中断调用方：返回空内容以及包装了 ErrMalformedContent 的错误。
// 缺失的 keyFocus/regularWork 字段视为空列表。
func ParseContent(raw any) (Content, error) {
	switch v := raw.(type) {
	case nil:
		return EmptyContent(), nil
	case Content:
		return normalize(v), nil
	case *Content:
		if v == nil {
			return EmptyContent(), nil
		}
		return normalize(*v), nil
	case string:
		return parseJSON(v, 0)
	case []byte:
		return parseJSON(string(v), 0)
	case json.RawMessage:
		return parseJSON(string(v), 0)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return EmptyContent(), fmt.Errorf("%w: %v", ErrMalformedContent, err)
		}
		return parseJSON(string(b), 0)
	}
}

func parseJSON(s string, depth int) (Content, error) {
	if !gjson.Valid(s) {
		return EmptyContent(), fmt.Errorf("%w: invalid json", ErrMalformedContent)
	}
	doc := gjson.Parse(s)
	switch {
	case doc.Type == gjson.Null:
		return EmptyContent(), nil
	case doc.Type == gjson.String && depth < maxStringNesting:
		// 旧数据中存在把 JSON 字符串再次编码后写入 JSON 列的情况
		return parseJSON(doc.String(), depth+1)
	case !doc.IsObject():
		return EmptyContent(), fmt.Errorf("%w: expected object, got %s", ErrMalformedContent, doc.Type)
	}

	return Content{
		KeyFocus:    parseItems(doc.Get(string(SectionKeyFocus))),
		RegularWork: parseItems(doc.Get(string(SectionRegularWork))),
	}, nil
}

func parseItems(list gjson.Result) []Item {
	items := []Item{}
	if !list.IsArray() {
		return items
	}
	list.ForEach(func(_, el gjson.Result) bool {
		if !el.IsObject() {
			return true
		}
		items = append(items, Item{
			Text:      el.Get("text").String(),
			Completed: el.Get("completed").Bool(),
			Notes:     el.Get("notes").String(),
			Tags:      parseTags(el.Get("tags")),
		})
		return true
	})
	return items
}

// parseTags 同时兼容 ["a","b"] 与前端保存的 [{"id":1,"name":"a"}] 两种形态
func parseTags(tags gjson.Result) []string {
	out := []string{}
	if !tags.IsArray() {
		return out
	}
	tags.ForEach(func(_, t gjson.Result) bool {
		var name string
		if t.IsObject() {
			name = t.Get("name").String()
		} else if t.Type == gjson.String {
			name = t.String()
		}
		if name != "" {
			out = append(out, name)
		}
		return true
	})
	return out
}

func normalize(c Content) Content {
	if c.KeyFocus == nil {
		c.KeyFocus = []Item{}
	}
	if c.RegularWork == nil {
		c.RegularWork = []Item{}
	}
	return c
}
