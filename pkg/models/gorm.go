package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&BulletAllocation{},
		&ReconciliationRun{},
	}
}
