package sqlinline

const QStats24h = `--sql 201d3efb-f3af-4ad7-af55-26e07f0b17f7
select event_type,
       count(*) as total,
       count(*) filter (where success) as succeeded,
       coalesce(avg(latency_ms) filter (where success), 0)::int as avg_latency_ms
from usage_events
where created_at > now() - interval '24 hours'
group by event_type
order by event_type;
`

const QStatsCountries24h = `--sql d9c6b981-56e6-4cd8-94d8-2f95287d7bd8
select coalesce(nullif(country, ''), 'unknown') as country, count(*) as total
from usage_events
where created_at > now() - interval '24 hours'
group by 1
order by total desc
limit 10;
`
