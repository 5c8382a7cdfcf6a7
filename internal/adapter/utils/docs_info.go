package utils

//run redis (chat log + job status)
//docker run -p 6379:6379 -d redis

//run qdrant (vector index), or set VECTOR_STORE=sqlite to stay local
//docker run -p 6333:6333 -p 6334:6334 -v pharmadocVectors:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
