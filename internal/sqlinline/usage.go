package sqlinline

const QInsertUsageEvent = `--sql caeedbf0-fd26-4e10-b067-fdac234f9dae
insert into usage_events(id, request_id, event_type, success, latency_ms, country, created_at, properties)
values (gen_random_uuid(), $1::uuid, $2::text, $3::boolean, $4::int, $5::text, now(), coalesce($6::jsonb, '{}'::jsonb));
`
