package weekly

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StampContent 为新建的周报补齐两个分区并写入起止日期
//
// raw 不是 JSON 对象时从空对象开始；已有的分区内容与其他字段原样保留。
func StampContent(raw json.RawMessage, startDate, endDate string) (json.RawMessage, error) {
	doc := "{}"
	if len(raw) > 0 && gjson.ValidBytes(raw) && gjson.ParseBytes(raw).IsObject() {
		doc = string(raw)
	}

	var err error
	for _, s := range Sections {
		if gjson.Get(doc, string(s)).IsArray() {
			continue
		}
		if doc, err = sjson.SetRaw(doc, string(s), "[]"); err != nil {
			return nil, err
		}
	}
	if doc, err = sjson.Set(doc, "startDate", startDate); err != nil {
		return nil, err
	}
	if doc, err = sjson.Set(doc, "endDate", endDate); err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}
