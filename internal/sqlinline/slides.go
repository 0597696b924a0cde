package sqlinline

const QInsertSlide = `--sql c41659d9-1ea6-4f19-989e-7f340a979ce3
insert into slides(id, title, subtitle, visual_type, slide_json, task_json, degraded, latency_ms, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::jsonb, $6::jsonb, $7::boolean, $8::int, now());
`

const QGetSlideByID = `--sql ae34cc70-23d6-4f5d-9bcb-2e378b4d156c
select slide_json
from slides
where id = $1::uuid;
`
