package mysql

const insertRunSQL = `
INSERT INTO snapshot_runs (id) VALUES (?)
`

const finishRunSQL = `
UPDATE snapshot_runs
SET finished_at = CURRENT_TIMESTAMP,
    stored      = ?,
    skipped     = ?
WHERE id = ?
`

// The archive keeps one row per CRM id; the latest run that saw it owns it.
const upsertListingSQL = `
INSERT INTO listings
  (id, run_id, title, price, type, status, payload)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  run_id     = VALUES(run_id),
  title      = VALUES(title),
  price      = VALUES(price),
  type       = VALUES(type),
  status     = VALUES(status),
  payload    = VALUES(payload),
  updated_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Listings captured by the most recent finished run, numeric ids first in order.
const latestListingsSQL = `
SELECT l.payload
FROM listings l
WHERE l.run_id = (
  SELECT r.id FROM snapshot_runs r
  WHERE r.finished_at IS NOT NULL
  ORDER BY r.finished_at DESC, r.started_at DESC
  LIMIT 1
)
ORDER BY CAST(l.id AS UNSIGNED), l.id
LIMIT ?
`

const getListingSQL = `
SELECT payload FROM listings WHERE id = ?
`
