package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "y4jamparticipan",
			"name": "participants",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "rel_session",
					"name": "session",
					"type": "relation",
					"required": true,
					"collectionId": "y4jamsessions01",
					"cascadeDelete": true,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "text_nickname",
					"name": "nickname",
					"type": "text",
					"required": true,
					"min": 1,
					"max": 50
				},
				{
					"id": "text_avatar",
					"name": "avatar_color",
					"type": "text",
					"required": false,
					"max": 9
				},
				{
					"id": "bool_is_host",
					"name": "is_host",
					"type": "bool",
					"required": false
				},
				{
					"id": "bool_is_active",
					"name": "is_active",
					"type": "bool",
					"required": false
				},
				{
					"id": "date_joined_at",
					"name": "joined_at",
					"type": "date",
					"required": true
				},
				{
					"id": "autodate_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_participants_active_nickname ON participants (session, nickname) WHERE is_active = TRUE",
				"CREATE INDEX idx_participants_session_active ON participants (session, is_active)"
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
		collection, err := app.FindCollectionByNameOrId("y4jamparticipan")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
