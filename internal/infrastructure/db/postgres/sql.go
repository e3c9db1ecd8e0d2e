package postgres

// eventColumns is shared by every read so scanEvent stays in one place.
// View counts live in their own table and are zero until the first view.
const eventColumns = `
e.id, e.host_id, e.title, e.uri, e.type, e.thumbnail_url,
e.start_at, e.end_at, e.recruitment_start_at, e.recruitment_end_at,
e.status, e.status_group, COALESCE(vc.view_count, 0),
e.created_at, e.updated_at`

const eventFrom = `
FROM events e
LEFT JOIN event_view_counts vc ON vc.event_id = e.id`

const insertEventSQL = `
INSERT INTO events (
  id, host_id, title, uri, type, thumbnail_url,
  start_at, end_at, recruitment_start_at, recruitment_end_at,
  status, status_group, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`

const getEventSQL = `SELECT` + eventColumns + eventFrom + `
WHERE e.id = $1
`

const selectEventForUpdateSQL = `SELECT` + eventColumns + eventFrom + `
WHERE e.id = $1
FOR UPDATE OF e
`

// status and status_group are always written together.
const updateStatusSQL = `
UPDATE events SET
  status=$2, status_group=$3, updated_at=$4
WHERE id=$1
`

const incrementViewCountSQL = `
INSERT INTO event_view_counts (event_id, view_count)
VALUES ($1, 1)
ON CONFLICT (event_id) DO UPDATE
SET view_count = event_view_counts.view_count + 1
`

const insertBookmarkSQL = `
INSERT INTO bookmarks (user_id, event_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id, event_id) DO NOTHING
`

const deleteBookmarkSQL = `
DELETE FROM bookmarks WHERE user_id = $1 AND event_id = $2
`

const selectRecipientTokensSQL = `
SELECT DISTINCT d.token
FROM bookmarks b
JOIN user_devices d ON d.user_id = b.user_id
WHERE b.event_id = $1
  AND d.notifications_enabled
ORDER BY d.token
`
