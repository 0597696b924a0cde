package sqlinline

const QInsertJob = `--sql 971dcdf4-1faa-4a8e-b1e2-1a190acbd6ba
insert into jobs(id, status, task_json, locale, country, created_at, updated_at)
values ($1::uuid, $2::text, $3::jsonb, $4::text, $5::text, now(), now());
`

const QGetJobByID = `--sql b512407d-29c7-4d5f-aee8-c05ad18b15da
select id, status, task_json, coalesce(slide_json, '{}'::jsonb), coalesce(error_message, ''), locale, country, created_at, updated_at
from jobs
where id = $1::uuid;
`

// QClaimNextJob moves the oldest queued job to running and returns it.
// SKIP LOCKED keeps concurrent workers from claiming the same row.
const QClaimNextJob = `--sql 4f923ed6-740f-4e7d-84a2-6f41561f9943
update jobs
set status = 'running', updated_at = now()
where id = (
    select id from jobs
    where status = 'queued'
    order by created_at
    for update skip locked
    limit 1
)
returning id, task_json, locale, country;
`

const QFinishJob = `--sql d136c12b-81e5-4188-a7ac-68f0e4c865be
update jobs
set status = $2::text,
    updated_at = now(),
    error_message = coalesce($3::text, error_message),
    slide_json = coalesce($4::jsonb, slide_json)
where id = $1::uuid;
`
