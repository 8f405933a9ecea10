package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "y4jamqueueitems",
			"name": "queue_items",
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
					"id": "json_track",
					"name": "track",
					"type": "json",
					"required": true,
					"maxSize": 4096
				},
				{
					"id": "rel_added_by",
					"name": "added_by",
					"type": "relation",
					"required": true,
					"collectionId": "y4jamparticipan",
					"cascadeDelete": false,
					"minSelect": 0,
					"maxSelect": 1
				},
				{
					"id": "num_position",
					"name": "position",
					"type": "number",
					"required": false,
					"onlyInt": true,
					"min": 0
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
				"CREATE INDEX idx_queue_items_session_position ON queue_items (session, position)"
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
		collection, err := app.FindCollectionByNameOrId("y4jamqueueitems")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
