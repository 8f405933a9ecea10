package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Reactions are persisted for analytics only (and only when
// PERSIST_REACTIONS is on). They are never read back into session state.
func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "y4jamreactions0",
			"name": "reactions",
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
					"id": "rel_participant",
					"name": "participant",
					"type": "relation",
					"required": true,
					"collectionId": "y4jamparticipan",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "text_nickname",
					"name": "nickname",
					"type": "text",
					"required": false,
					"max": 50
				},
				{
					"id": "select_emoji",
					"name": "emoji",
					"type": "select",
					"required": true,
					"maxSelect": 1,
					"values": [
						"🔥",
						"❤️",
						"🎉",
						"👏",
						"😂",
						"🎵"
					]
				},
				{
					"id": "text_track_id",
					"name": "track_id",
					"type": "text",
					"required": false,
					"max": 120
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
				"CREATE INDEX idx_reactions_session ON reactions (session)"
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
		collection, err := app.FindCollectionByNameOrId("y4jamreactions0")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
