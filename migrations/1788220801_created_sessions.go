package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "y4jamsessions01",
			"name": "sessions",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_code",
					"name": "code",
					"type": "text",
					"required": true,
					"min": 4,
					"max": 12,
					"pattern": ""
				},
				{
					"id": "text_name",
					"name": "name",
					"type": "text",
					"required": false,
					"max": 120
				},
				{
					"id": "select_privacy",
					"name": "privacy",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": [
						"public",
						"private",
						"code_gated"
					]
				},
				{
					"id": "text_access_hash",
					"name": "access_code_hash",
					"type": "text",
					"required": false,
					"max": 120
				},
				{
					"id": "text_playlist_id",
					"name": "playlist_id",
					"type": "text",
					"required": false,
					"max": 120
				},
				{
					"id": "text_playlist_nm",
					"name": "playlist_name",
					"type": "text",
					"required": false,
					"max": 200
				},
				{
					"id": "json_cur_track",
					"name": "current_track",
					"type": "json",
					"required": false,
					"maxSize": 4096
				},
				{
					"id": "bool_is_playing",
					"name": "is_playing",
					"type": "bool",
					"required": false
				},
				{
					"id": "num_position_ms",
					"name": "position_ms",
					"type": "number",
					"required": false,
					"onlyInt": true,
					"min": 0
				},
				{
					"id": "date_pb_updated",
					"name": "playback_updated",
					"type": "date",
					"required": false
				},
				{
					"id": "bool_is_active",
					"name": "is_active",
					"type": "bool",
					"required": false
				},
				{
					"id": "num_max_parts",
					"name": "max_participants",
					"type": "number",
					"required": true,
					"onlyInt": true,
					"min": 1
				},
				{
					"id": "autodate_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				},
				{
					"id": "autodate_updated",
					"name": "updated",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": true
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_sessions_active_code ON sessions (code) WHERE is_active = TRUE"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("y4jamsessions01")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
